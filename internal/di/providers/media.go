package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfplayapp/shelfplay-player/internal/config"
	"github.com/shelfplayapp/shelfplay-player/internal/covers"
	"github.com/shelfplayapp/shelfplay-player/internal/logger"
	"github.com/shelfplayapp/shelfplay-player/internal/transcode"
)

// ProvideCoverService provides cover extraction, generation, and storage.
func ProvideCoverService(i do.Injector) (*covers.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := covers.NewStorage(cfg.Covers.Path)
	if err != nil {
		return nil, err
	}
	return covers.NewService(storage, log.Logger), nil
}

// ProvideTranscoder provides the audio transcoder.
func ProvideTranscoder(i do.Injector) (*transcode.Transcoder, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return transcode.New(transcode.Config{
		Enabled:    cfg.Transcode.Enabled,
		FFmpegPath: cfg.Transcode.FFmpegPath,
		CachePath:  cfg.Transcode.CachePath,
	}, log.Logger)
}

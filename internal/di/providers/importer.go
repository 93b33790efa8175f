package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfplayapp/shelfplay-player/internal/config"
	"github.com/shelfplayapp/shelfplay-player/internal/covers"
	"github.com/shelfplayapp/shelfplay-player/internal/importer"
	"github.com/shelfplayapp/shelfplay-player/internal/logger"
	"github.com/shelfplayapp/shelfplay-player/internal/transcode"
)

// ProvideImporter provides the audio importer.
func ProvideImporter(i do.Injector) (*importer.Importer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	lib := do.MustInvoke[*LibraryHandle](i)
	coverSvc := do.MustInvoke[*covers.Service](i)
	transcoder := do.MustInvoke[*transcode.Transcoder](i)

	return importer.New(lib, coverSvc, transcoder, cfg.Library.Path, log.Logger)
}

// InboxWatcherHandle wraps the inbox watcher with shutdown capability.
type InboxWatcherHandle struct {
	*importer.Watcher
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *InboxWatcherHandle) Shutdown() error {
	if h.started {
		h.Stop()
	}
	return nil
}

// ProvideInboxWatcher provides the inbox auto-import watcher, started when
// the config enables it.
func ProvideInboxWatcher(i do.Injector) (*InboxWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	im := do.MustInvoke[*importer.Importer](i)

	if !cfg.Library.WatchInbox {
		log.Info("Inbox watching disabled")
		return &InboxWatcherHandle{}, nil
	}

	w, err := importer.NewWatcher(im, cfg.Library.InboxPath, cfg.Library.InboxDebounce, log.Logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return &InboxWatcherHandle{Watcher: w, started: true}, nil
}

package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/shelfplayapp/shelfplay-player/internal/config"
	"github.com/shelfplayapp/shelfplay-player/internal/logger"
	"github.com/shelfplayapp/shelfplay-player/internal/store"
	"github.com/shelfplayapp/shelfplay-player/internal/store/sqlite"
)

// LibraryHandle wraps the persistence backend with shutdown capability.
type LibraryHandle struct {
	store.Library
}

// Shutdown implements do.Shutdownable.
func (h *LibraryHandle) Shutdown() error {
	return h.Close()
}

// ProvideLibrary provides the book catalog and checkpoint store, backed by
// whichever backend the config selects.
func ProvideLibrary(i do.Injector) (*LibraryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		lib store.Library
		err error
	)
	switch cfg.Storage.Backend {
	case "badger":
		lib, err = store.New(cfg.Storage.Path, log.Logger)
	case "sqlite":
		lib, err = sqlite.Open(cfg.Storage.Path, log.Logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Storage initialized", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)
	return &LibraryHandle{Library: lib}, nil
}

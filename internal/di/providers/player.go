package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfplayapp/shelfplay-player/internal/config"
	"github.com/shelfplayapp/shelfplay-player/internal/engine"
	"github.com/shelfplayapp/shelfplay-player/internal/logger"
	"github.com/shelfplayapp/shelfplay-player/internal/player"
	"github.com/shelfplayapp/shelfplay-player/internal/store"
)

// Sessions opens playback sessions against the library. One orchestrator
// per open book; the caller owns its lifecycle.
type Sessions struct {
	library store.Library
	factory engine.Factory
	logger  *logger.Logger
	opts    player.Options
}

// Open loads a book into a new playback session, resuming saved progress.
func (s *Sessions) Open(ctx context.Context, bookID string) (*player.Orchestrator, error) {
	return s.open(ctx, bookID, true)
}

// OpenFresh loads a book from the beginning, ignoring any saved progress.
func (s *Sessions) OpenFresh(ctx context.Context, bookID string) (*player.Orchestrator, error) {
	return s.open(ctx, bookID, false)
}

func (s *Sessions) open(ctx context.Context, bookID string, resume bool) (*player.Orchestrator, error) {
	book, err := s.library.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	orch, err := player.New(book, s.library, s.factory, s.logger.Logger, s.opts)
	if err != nil {
		return nil, err
	}
	if err := orch.Load(ctx, resume); err != nil {
		_ = orch.Close()
		return nil, err
	}
	return orch, nil
}

// ProvideSessions provides the playback session factory.
func ProvideSessions(i do.Injector) (*Sessions, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	lib := do.MustInvoke[*LibraryHandle](i)

	opts := player.DefaultOptions()
	opts.PollInterval = cfg.Player.PollInterval
	opts.AutosaveInterval = cfg.Player.AutosaveInterval
	opts.SkipDeltaMs = cfg.Player.SkipDeltaMs
	opts.SeekReadyTimeout = cfg.Player.SeekReadyTimeout

	return &Sessions{
		library: lib,
		factory: func() engine.Engine { return engine.NewSilent() },
		logger:  log,
		opts:    opts,
	}, nil
}

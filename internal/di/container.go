// Package di provides dependency injection configuration for the Shelfplay
// player.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfplayapp/shelfplay-player/internal/config"
	"github.com/shelfplayapp/shelfplay-player/internal/covers"
	"github.com/shelfplayapp/shelfplay-player/internal/di/providers"
	"github.com/shelfplayapp/shelfplay-player/internal/importer"
	"github.com/shelfplayapp/shelfplay-player/internal/logger"
	"github.com/shelfplayapp/shelfplay-player/internal/transcode"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideLibrary)

	// Media layer
	do.Provide(injector, providers.ProvideCoverService)
	do.Provide(injector, providers.ProvideTranscoder)

	// Import layer
	do.Provide(injector, providers.ProvideImporter)
	do.Provide(injector, providers.ProvideInboxWatcher)

	// Playback
	do.Provide(injector, providers.ProvideSessions)

	return injector
}

// Bootstrap initializes all services. This triggers lazy initialization in
// dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.LibraryHandle](injector)
	_ = do.MustInvoke[*covers.Service](injector)
	_ = do.MustInvoke[*transcode.Transcoder](injector)
	_ = do.MustInvoke[*importer.Importer](injector)
	_ = do.MustInvoke[*providers.InboxWatcherHandle](injector)
	_ = do.MustInvoke[*providers.Sessions](injector)
	return nil
}

// Package providers contains dependency injection providers for the
// Shelfplay player.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfplayapp/shelfplay-player/internal/config"
	"github.com/shelfplayapp/shelfplay-player/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Shelfplay player",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.App.DataPath,
		"storage_backend", cfg.Storage.Backend,
	)

	return log, nil
}

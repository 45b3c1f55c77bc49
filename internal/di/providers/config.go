// Package providers contains dependency injection providers for the circulation shell.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/listenupapp/circulation/internal/config"
	"github.com/listenupapp/circulation/internal/logger"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting circulation shell",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.Path,
		"search_enabled", cfg.Search.Enabled,
	)

	return log, nil
}

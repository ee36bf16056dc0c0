// Package providers contains dependency injection providers for the pipeline.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/florilegium/florilegium-server/internal/config"
	"github.com/florilegium/florilegium-server/internal/logger"
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

	log.Info("Starting Florilegium",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"export_path", cfg.Data.ExportPath,
		"catalog_path", cfg.Data.CatalogPath,
	)

	return log, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}

// Package providers contains dependency injection providers for the GenSlides server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/config"
	"github.com/lehuagavin/genslides/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting GenSlides Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"slides_path", cfg.Storage.SlidesBasePath,
		"default_engine", cfg.Engines.Default,
	)

	if !cfg.HasAnyEngineKey() {
		log.Warn("No image provider API key configured; generation requests will fail")
	}

	return log, nil
}

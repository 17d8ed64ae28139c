// Package di provides dependency injection configuration for the GenSlides server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/config"
	"github.com/lehuagavin/genslides/internal/di/providers"
	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/service"
	"github.com/lehuagavin/genslides/internal/store"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideImageStorage)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Generation and notifications
	do.Provide(injector, providers.ProvideEngines)
	do.Provide(injector, providers.ProvideHub)

	// Business services
	do.Provide(injector, providers.ProvideSlidesService)
	do.Provide(injector, providers.ProvideImageService)
	do.Provide(injector, providers.ProvideStyleService)
	do.Provide(injector, providers.ProvideCostService)
	do.Provide(injector, providers.ProvideExportService)

	// Workers
	do.Provide(injector, providers.ProvideOutlineSync)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*store.Store](injector)
	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*providers.EnginesHandle](injector)
	_ = do.MustInvoke[*providers.HubHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.SlidesService](injector)
	_ = do.MustInvoke[*providers.ImageServiceHandle](injector)
	_ = do.MustInvoke[*service.StyleService](injector)
	_ = do.MustInvoke[*service.CostService](injector)
	_ = do.MustInvoke[*service.ExportService](injector)

	// Workers
	_ = do.MustInvoke[*providers.OutlineSyncHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}

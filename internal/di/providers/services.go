package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/service"
	"github.com/lehuagavin/genslides/internal/store"
)

// ProvideSlidesService provides the project and slide service.
func ProvideSlidesService(i do.Injector) (*service.SlidesService, error) {
	st := do.MustInvoke[*store.Store](i)
	blobs := do.MustInvoke[*images.Storage](i)
	engines := do.MustInvoke[*EnginesHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSlidesService(st, blobs, engines.Registry, log.Component("slides")), nil
}

// ImageServiceHandle waits for running generation tasks on shutdown.
type ImageServiceHandle struct {
	*service.ImageService
}

// Shutdown implements do.Shutdownable.
func (h *ImageServiceHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.ImageService.Shutdown(ctx)
}

// ProvideImageService provides the slide image service.
func ProvideImageService(i do.Injector) (*ImageServiceHandle, error) {
	st := do.MustInvoke[*store.Store](i)
	blobs := do.MustInvoke[*images.Storage](i)
	engines := do.MustInvoke[*EnginesHandle](i)
	hub := do.MustInvoke[*HubHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewImageService(st, blobs, engines.Registry, hub.Hub, log.Component("images"))
	return &ImageServiceHandle{ImageService: svc}, nil
}

// ProvideStyleService provides the style service.
func ProvideStyleService(i do.Injector) (*service.StyleService, error) {
	st := do.MustInvoke[*store.Store](i)
	blobs := do.MustInvoke[*images.Storage](i)
	engines := do.MustInvoke[*EnginesHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStyleService(st, blobs, engines.Registry, log.Component("style")), nil
}

// ProvideCostService provides the cost service.
func ProvideCostService(i do.Injector) (*service.CostService, error) {
	st := do.MustInvoke[*store.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCostService(st, log.Component("cost")), nil
}

// ProvideExportService provides the export service.
func ProvideExportService(i do.Injector) (*service.ExportService, error) {
	st := do.MustInvoke[*store.Store](i)
	blobs := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewExportService(st, blobs, log.Component("export")), nil
}

package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/api"
	"github.com/lehuagavin/genslides/internal/config"
	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/service"
)

// Version is reported in the OpenAPI document. Overridden at link time.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	limiter *api.RateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if h.limiter != nil {
		defer h.limiter.Stop()
	}
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	blobs := do.MustInvoke[*images.Storage](i)
	engines := do.MustInvoke[*EnginesHandle](i)
	hub := do.MustInvoke[*HubHandle](i)
	imageHandle := do.MustInvoke[*ImageServiceHandle](i)

	services := &api.Services{
		Slides: do.MustInvoke[*service.SlidesService](i),
		Images: imageHandle.ImageService,
		Style:  do.MustInvoke[*service.StyleService](i),
		Cost:   do.MustInvoke[*service.CostService](i),
		Export: do.MustInvoke[*service.ExportService](i),
		Search: do.MustInvoke[*service.SearchService](i),
	}

	var limiter *api.RateLimiter
	if cfg.Server.GeneratePerMinute > 0 {
		limiter = api.NewRateLimiter(cfg.Server.GeneratePerMinute, time.Minute, cfg.Server.GeneratePerMinute)
	}

	handler := api.NewServer(services, blobs, engines.Registry, hub.Hub, api.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		GenerateLimit: limiter,
		Version:       Version,
	}, log.Logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, limiter: limiter}, nil
}

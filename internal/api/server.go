// Package api provides the HTTP API server and handlers for GenSlides.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lehuagavin/genslides/internal/dto"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/notify"
)

// Options configures the server surface.
type Options struct {
	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
	// GenerateLimit bounds generation requests per client IP. Nil disables limiting.
	GenerateLimit *RateLimiter
	Version       string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	blobs     *images.Storage
	engines   *generation.Registry
	hub       *notify.Hub
	presenter *dto.Presenter
	sse       *notify.SSEHandler
	ws        *notify.WebSocketHandler
	limiter   *RateLimiter
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
	startedAt time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, blobs *images.Storage, engines *generation.Registry, hub *notify.Hub, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		services:  services,
		blobs:     blobs,
		engines:   engines,
		hub:       hub,
		presenter: dto.NewPresenter(blobs, services.Cost.Pricing()),
		sse:       notify.NewSSEHandler(hub, logger),
		ws:        notify.NewWebSocketHandler(hub, logger),
		limiter:   opts.GenerateLimit,
		router:    router,
		logger:    logger,
		startedAt: time.Now(),
	}

	s.setupMiddleware(opts.CORSOrigins)

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	humaConfig := huma.DefaultConfig("GenSlides API", version)
	humaConfig.Info.Description = "Slide deck editor backend with AI image generation"
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           300,
	}))
}

func (s *Server) registerRoutes() {
	// Generation endpoints hit paid providers; limit them per client.
	if s.limiter != nil {
		s.api.UseMiddleware(s.generateRateLimit)
	}

	s.registerHealthRoutes()
	s.registerProjectRoutes()
	s.registerSlideRoutes()
	s.registerImageRoutes()
	s.registerStyleRoutes()
	s.registerSearchRoutes()
	s.registerStreamRoutes()
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

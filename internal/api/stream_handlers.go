package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/lehuagavin/genslides/internal/errors"
	"github.com/lehuagavin/genslides/internal/http/response"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/validation"
)

// registerStreamRoutes mounts the handlers huma cannot describe: event
// streams and static image files.
func (s *Server) registerStreamRoutes() {
	s.router.Get("/api/slides/{slug}/events", s.handleEventStream)
	s.router.Get("/ws/slides/{slug}", s.handleWebSocket)

	files := http.StripPrefix(images.DefaultURLPrefix, http.FileServer(http.Dir(s.blobs.Root())))
	s.router.Get(images.DefaultURLPrefix+"/*", s.serveImage(files))
}

// handleEventStream serves GET /api/slides/{slug}/events as Server-Sent Events.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := validation.Identifier("slug", slug); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	s.sse.Serve(w, r, slug)
}

// handleWebSocket serves /ws/slides/{slug}.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := validation.Identifier("slug", slug); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	s.ws.Serve(w, r, slug)
}

// serveImage exposes JPEG blobs only; project documents under the same root
// stay private.
func (s *Server) serveImage(files http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + chi.URLParam(r, "*"))
		if !strings.HasSuffix(name, ".jpg") || strings.Contains(name, "..") {
			response.NotFound(w, domainerrors.CodeImageNotFound, "Image not found", s.logger)
			return
		}
		// Slide images are addressed by content hash; the style image is replaced in place.
		if strings.Contains(name, "/images/") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		files.ServeHTTP(w, r)
	}
}

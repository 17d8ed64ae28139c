package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehuagavin/genslides/internal/api/dto"
	"github.com/lehuagavin/genslides/internal/domain"
	appdto "github.com/lehuagavin/genslides/internal/dto"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/notify"
	"github.com/lehuagavin/genslides/internal/search"
	"github.com/lehuagavin/genslides/internal/service"
	"github.com/lehuagavin/genslides/internal/store"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api    humatest.TestAPI
	engine *generation.Fake
}

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(store.Options{
		BasePath:      root,
		DefaultEngine: generation.EngineVolcengine,
		Pricing:       domain.Pricing{PerStyleImage: 0.02, PerSlideImage: 0.04},
		Logger:        logger,
	})
	require.NoError(t, err)

	index, err := search.NewSearchIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	st.SetObserver(index)

	blobs, err := images.NewStorage(root, "")
	require.NoError(t, err)

	engine := generation.NewFake(generation.EngineVolcengine)
	engines := generation.NewRegistry(generation.EngineVolcengine, logger)
	engines.Register(engine)
	engines.Register(generation.NewFake(generation.EngineGemini))

	hub := notify.NewHub(logger)
	imgSvc := service.NewImageService(st, blobs, engines, hub, logger)

	services := &Services{
		Slides: service.NewSlidesService(st, blobs, engines, logger),
		Images: imgSvc,
		Style:  service.NewStyleService(st, blobs, engines, logger),
		Cost:   service.NewCostService(st, logger),
		Export: service.NewExportService(st, blobs, logger),
		Search: service.NewSearchService(index, st, logger),
	}

	s := NewServer(services, blobs, engines, hub, opts, logger)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = imgSvc.Shutdown(ctx)
		_ = hub.Shutdown(ctx)
		_ = index.Close()
	})

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		engine: engine,
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode[T any](t *testing.T, body *bytes.Buffer) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body.Bytes(), &v), body.String())
	return v
}

func assertError(t *testing.T, body *bytes.Buffer, code string) {
	t.Helper()
	env := decode[errorEnvelope](t, body)
	assert.Equal(t, code, env.Error.Code, body.String())
	assert.NotEmpty(t, env.Error.Message)
}

// saveStyle generates candidates through the API and saves the first one.
func (ts *testServer) saveStyle(t *testing.T, slug string) {
	t.Helper()

	resp := ts.api.Post("/api/slides/"+slug+"/style/generate", map[string]any{"prompt": "flat pastel shapes"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	gen := decode[dto.GenerateStyleResponse](t, resp.Body)
	require.NotEmpty(t, gen.Candidates)

	resp = ts.api.Put("/api/slides/"+slug+"/style", map[string]any{
		"prompt":       "flat pastel shapes",
		"candidate_id": gen.Candidates[0].ID,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func (ts *testServer) createSlide(t *testing.T, slug, content string) appdto.Slide {
	t.Helper()
	resp := ts.api.Post("/api/slides/"+slug, map[string]any{"content": content})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[appdto.Slide](t, resp.Body)
}

func nextEvent(t *testing.T, sub *notify.Subscriber) notify.Event {
	t.Helper()
	select {
	case ev := <-sub.Events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return notify.Event{}
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body)
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.Engines[generation.EngineVolcengine])
	assert.Equal(t, "healthy", health.Components["search"].Status)
}

func TestProjectLifecycle(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/slides/demo")
	require.Equal(t, http.StatusOK, resp.Code)
	project := decode[appdto.Project](t, resp.Body)
	assert.Equal(t, "demo", project.Slug)
	assert.Empty(t, project.Slides)
	assert.Nil(t, project.Style)

	resp = ts.api.Put("/api/slides/demo/title", map[string]any{"title": "Quarterly Review"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Quarterly Review", decode[dto.UpdateTitleResponse](t, resp.Body).Title)

	resp = ts.api.Get("/api/slides")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[dto.ListProjectsResponse](t, resp.Body)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "Quarterly Review", list.Projects[0].Title)

	resp = ts.api.Delete("/api/slides/demo")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "demo", decode[dto.DeleteProjectResponse](t, resp.Body).DeletedSlug)

	resp = ts.api.Delete("/api/slides/demo")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assertError(t, resp.Body, "PROJECT_NOT_FOUND")
}

func TestSlideCRUD(t *testing.T) {
	ts := setupTestServer(t, Options{})

	first := ts.createSlide(t, "demo", "first")
	third := ts.createSlide(t, "demo", "third")

	resp := ts.api.Post("/api/slides/demo", map[string]any{"content": "second", "after_sid": first.SID})
	require.Equal(t, http.StatusOK, resp.Code)
	second := decode[appdto.Slide](t, resp.Body)

	resp = ts.api.Put("/api/slides/demo/"+third.SID, map[string]any{"content": "third, edited"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "third, edited", decode[appdto.Slide](t, resp.Body).Content)

	resp = ts.api.Put("/api/slides/demo/reorder", map[string]any{"order": []string{third.SID, second.SID, first.SID}})
	require.Equal(t, http.StatusOK, resp.Code)
	reordered := decode[dto.ReorderResponse](t, resp.Body)
	require.Len(t, reordered.Slides, 3)
	assert.Equal(t, third.SID, reordered.Slides[0].SID)
	assert.Equal(t, first.SID, reordered.Slides[2].SID)

	resp = ts.api.Delete("/api/slides/demo/" + second.SID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, second.SID, decode[dto.DeleteSlideResponse](t, resp.Body).DeletedSID)

	resp = ts.api.Get("/api/slides/demo")
	project := decode[appdto.Project](t, resp.Body)
	require.Len(t, project.Slides, 2)
	assert.Equal(t, third.SID, project.Slides[0].SID)
}

func TestErrorEnvelope(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.createSlide(t, "demo", "only")

	tests := []struct {
		name   string
		call   func() *bytes.Buffer
		status int
		code   string
	}{
		{
			name: "unknown slide",
			call: func() *bytes.Buffer {
				resp := ts.api.Put("/api/slides/demo/missing", map[string]any{"content": "x"})
				assert.Equal(t, http.StatusNotFound, resp.Code)
				return resp.Body
			},
			code: "SLIDE_NOT_FOUND",
		},
		{
			name: "incomplete reorder",
			call: func() *bytes.Buffer {
				resp := ts.api.Put("/api/slides/demo/reorder", map[string]any{"order": []string{}})
				assert.Equal(t, http.StatusBadRequest, resp.Code)
				return resp.Body
			},
			code: "INVALID_REQUEST",
		},
		{
			name: "slug outside pattern",
			call: func() *bytes.Buffer {
				resp := ts.api.Get("/api/slides/bad.slug")
				assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
				return resp.Body
			},
			code: "VALIDATION_ERROR",
		},
		{
			name: "content too long",
			call: func() *bytes.Buffer {
				resp := ts.api.Post("/api/slides/demo", map[string]any{"content": strings.Repeat("x", domain.MaxSlideContentLength+1)})
				assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
				return resp.Body
			},
			code: "VALIDATION_ERROR",
		},
		{
			name: "unknown engine",
			call: func() *bytes.Buffer {
				resp := ts.api.Put("/api/slides/demo/engine", map[string]any{"engine": "dall-e"})
				assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
				return resp.Body
			},
			code: "VALIDATION_ERROR",
		},
		{
			name: "unknown style type",
			call: func() *bytes.Buffer {
				resp := ts.api.Post("/api/slides/demo/style/generate-from-template", map[string]any{"style_type": "cubism"})
				assert.Equal(t, http.StatusBadRequest, resp.Code)
				return resp.Body
			},
			code: "INVALID_REQUEST",
		},
		{
			name: "unknown candidate",
			call: func() *bytes.Buffer {
				resp := ts.api.Put("/api/slides/demo/style", map[string]any{"prompt": "p", "candidate_id": "cand-missing"})
				assert.Equal(t, http.StatusBadRequest, resp.Code)
				return resp.Body
			},
			code: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, tt.call(), tt.code)
		})
	}
}

func TestEngineSelection(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/slides/demo/engine")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, generation.EngineVolcengine, decode[dto.EngineResponse](t, resp.Body).Engine)

	resp = ts.api.Put("/api/slides/demo/engine", map[string]any{"engine": generation.EngineGemini})
	require.Equal(t, http.StatusOK, resp.Code)
	engine := decode[dto.EngineResponse](t, resp.Body)
	assert.Equal(t, generation.EngineGemini, engine.Engine)
	assert.True(t, engine.Available[generation.EngineGemini])
}

func TestStyleFlow(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/slides/demo/style")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[dto.GetStyleResponse](t, resp.Body).HasStyle)

	resp = ts.api.Get("/api/style/templates")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, decode[dto.TemplatesResponse](t, resp.Body).Templates)

	ts.saveStyle(t, "demo")

	resp = ts.api.Get("/api/slides/demo/style")
	style := decode[dto.GetStyleResponse](t, resp.Body)
	assert.True(t, style.HasStyle)
	require.NotNil(t, style.Style)
	assert.Equal(t, "flat pastel shapes", style.Style.Prompt)

	resp = ts.api.Get("/api/slides/demo/cost")
	require.Equal(t, http.StatusOK, resp.Code)
	cost := decode[appdto.Cost](t, resp.Body)
	assert.Equal(t, generation.StyleCandidateCount, cost.StyleGenerations)
	assert.InDelta(t, 0.04, cost.EstimatedCost, 1e-9)
}

func TestGenerateAndExport(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.saveStyle(t, "demo")
	first := ts.createSlide(t, "demo", "hello")
	ts.createSlide(t, "demo", "never generated")

	sub, err := ts.hub.Subscribe("demo")
	require.NoError(t, err)
	defer ts.hub.Unsubscribe(sub)

	resp := ts.api.Post("/api/slides/demo/"+first.SID+"/generate", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	task := decode[dto.GenerateTaskResponse](t, resp.Body)
	assert.Equal(t, service.TaskStatusPending, task.Status)
	assert.NotEmpty(t, task.TaskID)

	assert.Equal(t, notify.EventGenerationStarted, nextEvent(t, sub).Type)
	done := nextEvent(t, sub)
	require.Equal(t, notify.EventGenerationCompleted, done.Type)
	data, ok := done.Data.(notify.TaskData)
	require.True(t, ok)
	require.NotNil(t, data.Image)

	resp = ts.api.Get("/api/slides/demo/" + first.SID + "/images")
	require.Equal(t, http.StatusOK, resp.Code)
	history := decode[appdto.SlideImages](t, resp.Body)
	assert.True(t, history.HasMatchedImage)
	require.Len(t, history.Images, 1)

	t.Run("static image", func(t *testing.T) {
		resp := ts.api.Get(data.Image.URL)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))

		resp = ts.api.Get(images.DefaultURLPrefix + "/demo/outline.yml")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("export", func(t *testing.T) {
		resp := ts.api.Get("/api/slides/demo/export")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "application/zip", resp.Header().Get("Content-Type"))
		assert.Contains(t, resp.Header().Get("Content-Disposition"), "demo.zip")

		zr, err := zip.NewReader(bytes.NewReader(resp.Body.Bytes()), int64(resp.Body.Len()))
		require.NoError(t, err)
		require.Len(t, zr.File, 1)
		assert.Equal(t, "01.jpg", zr.File[0].Name)
	})

	t.Run("export unknown project", func(t *testing.T) {
		resp := ts.api.Get("/api/slides/ghost/export")
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assertError(t, resp.Body, "PROJECT_NOT_FOUND")
	})

	t.Run("delete image", func(t *testing.T) {
		resp := ts.api.Delete("/api/slides/demo/" + first.SID + "/images/" + data.Image.Hash)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, data.Image.Hash, decode[dto.DeleteImageResponse](t, resp.Body).DeletedHash)
		assert.Equal(t, notify.EventImageDeleted, nextEvent(t, sub).Type)

		resp = ts.api.Delete("/api/slides/demo/" + first.SID + "/images/" + data.Image.Hash)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assertError(t, resp.Body, "IMAGE_NOT_FOUND")
	})
}

func TestGenerateRateLimit(t *testing.T) {
	ts := setupTestServer(t, Options{GenerateLimit: NewRateLimiter(1, time.Hour, 1)})
	t.Cleanup(ts.limiter.Stop)

	resp := ts.api.Post("/api/slides/demo/style/generate", map[string]any{"prompt": "ink wash"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/slides/demo/style/generate", map[string]any{"prompt": "ink wash"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))
	assertError(t, resp.Body, "RATE_LIMITED")

	// Non-generating routes are not limited.
	resp = ts.api.Get("/api/slides/demo")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.createSlide(t, "demo", "Quarterly revenue grew across every region")
	ts.createSlide(t, "other", "Hiring plan")

	resp := ts.api.Get("/api/search?q=revenue")
	require.Equal(t, http.StatusOK, resp.Code)
	result := decode[search.SearchResult](t, resp.Body)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "demo", result.Hits[0].Slug)
	assert.Equal(t, search.DocTypeSlide, result.Hits[0].Type)

	resp = ts.api.Get("/api/search?q=revenue&slug=other")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[search.SearchResult](t, resp.Body).Hits)

	resp = ts.api.Post("/api/search/reindex")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[dto.SuccessResponse](t, resp.Body).Success)
}

func TestEventStreamRejectsBadSlug(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/slides/bad.slug/events")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assertError(t, resp.Body, "INVALID_REQUEST")
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "203.0.113.7", clientIP("203.0.113.7, 10.0.0.1", "", "127.0.0.1:5000"))
	assert.Equal(t, "198.51.100.2", clientIP("", "198.51.100.2", "127.0.0.1:5000"))
	assert.Equal(t, "127.0.0.1", clientIP("", "", "127.0.0.1:5000"))
	assert.Equal(t, "pipe", clientIP("", "", "pipe"))
}

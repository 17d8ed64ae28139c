package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/notify"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/stretchr/testify/require"
)

var testPricing = domain.Pricing{PerStyleImage: 0.02, PerSlideImage: 0.04}

type testEnv struct {
	store  *store.Store
	blobs  *images.Storage
	engine *generation.Fake
	hub    *notify.Hub

	slides *SlidesService
	images *ImageService
	styles *StyleService
	costs  *CostService
	export *ExportService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(store.Options{
		BasePath:      root,
		DefaultEngine: generation.EngineVolcengine,
		Pricing:       testPricing,
		Logger:        logger,
	})
	require.NoError(t, err)

	blobs, err := images.NewStorage(root, "")
	require.NoError(t, err)

	engine := generation.NewFake(generation.EngineVolcengine)
	engines := generation.NewRegistry(generation.EngineVolcengine, logger)
	engines.Register(engine)
	engines.Register(generation.NewFake(generation.EngineGemini))

	hub := notify.NewHub(logger)
	imgSvc := NewImageService(st, blobs, engines, hub, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = imgSvc.Shutdown(ctx)
		_ = hub.Shutdown(ctx)
	})

	return &testEnv{
		store:  st,
		blobs:  blobs,
		engine: engine,
		hub:    hub,
		slides: NewSlidesService(st, blobs, engines, logger),
		images: imgSvc,
		styles: NewStyleService(st, blobs, engines, logger),
		costs:  NewCostService(st, logger),
		export: NewExportService(st, blobs, logger),
	}
}

// withStyle generates candidates and saves the first as the project style.
func (e *testEnv) withStyle(t *testing.T, slug string) *domain.Style {
	t.Helper()
	ctx := context.Background()

	candidates, err := e.styles.GenerateCandidates(ctx, slug, "flat pastel shapes")
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	style, err := e.styles.SaveStyle(ctx, slug, SaveStyleInput{
		Prompt:      "flat pastel shapes",
		CandidateID: candidates[0].ID,
	})
	require.NoError(t, err)
	return style
}

func (e *testEnv) addSlide(t *testing.T, slug, content string) *domain.Slide {
	t.Helper()
	s, err := e.slides.CreateSlide(context.Background(), slug, content, "")
	require.NoError(t, err)
	return s
}

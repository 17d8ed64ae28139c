package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lehuagavin/genslides/internal/domain"
	domainerrors "github.com/lehuagavin/genslides/internal/errors"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/lehuagavin/genslides/internal/hash"
	"github.com/lehuagavin/genslides/internal/id"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/notify"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/lehuagavin/genslides/internal/validation"
)

// TaskStatusPending is reported for a freshly submitted generation task.
const TaskStatusPending = "pending"

// ImageService generates, lists and deletes slide images.
type ImageService struct {
	store   *store.Store
	blobs   *images.Storage
	engines *generation.Registry
	hub     *notify.Hub
	logger  *slog.Logger

	tasks sync.WaitGroup
}

// NewImageService creates a new image service.
func NewImageService(st *store.Store, blobs *images.Storage, engines *generation.Registry, hub *notify.Hub, logger *slog.Logger) *ImageService {
	return &ImageService{
		store:   st,
		blobs:   blobs,
		engines: engines,
		hub:     hub,
		logger:  logger,
	}
}

// GetSlide returns a slide of a project, creating the project on first access.
func (s *ImageService) GetSlide(ctx context.Context, slug, sid string) (*domain.Slide, error) {
	if err := validation.Identifiers("slug", slug, "sid", sid); err != nil {
		return nil, err
	}
	p, err := s.store.GetOrCreate(ctx, slug)
	if err != nil {
		return nil, storeError(err, slug)
	}
	slide, _ := p.Slide(sid)
	if slide == nil {
		return nil, domainerrors.SlideNotFound(sid)
	}
	return slide, nil
}

// GenerateImage renders the slide's present content in the project style.
//
// Unless force is set, an image already stored for the content fingerprint is
// returned without calling the engine. A generated image is appended to the
// slide (once per fingerprint) and counted in the cost ledger.
func (s *ImageService) GenerateImage(ctx context.Context, slug, sid string, force bool) (*domain.SlideImage, error) {
	// 1. Load project and slide.
	if err := validation.Identifiers("slug", slug, "sid", sid); err != nil {
		return nil, err
	}
	p, err := s.store.GetOrCreate(ctx, slug)
	if err != nil {
		return nil, storeError(err, slug)
	}
	slide, _ := p.Slide(sid)
	if slide == nil {
		return nil, domainerrors.SlideNotFound(sid)
	}
	if p.Style == nil {
		return nil, domainerrors.StyleNotSet()
	}

	contentHash := hash.Text(slide.Content)
	logger := s.logger.With("slug", slug, "sid", sid, "hash", contentHash)

	// 2. Reuse an existing image for unchanged content.
	if !force && s.blobs.ImageExists(slug, sid, contentHash) {
		if existing := slide.Image(contentHash); existing != nil {
			logger.Debug("reusing existing image")
			return existing, nil
		}
		logger.Info("recording orphaned image for unchanged content")
		return s.record(ctx, slug, sid, &domain.SlideImage{
			Hash:      contentHash,
			Path:      s.blobs.ImageURL(slug, sid, contentHash),
			CreatedAt: s.store.Now(),
		}, false)
	}

	// 3. Generate.
	styleImage, err := s.blobs.GetStyleImage(slug)
	if isBlobMissing(err) {
		return nil, domainerrors.StyleNotSet()
	}
	if err != nil {
		return nil, err
	}

	engine := s.engines.Resolve(p.ImageEngine)
	if engine == nil {
		return nil, domainerrors.GenerationFailed(generation.ErrNotConfigured)
	}

	logger.Info("generating slide image", "engine", engine.Name(), "force", force)
	started := time.Now()
	data, err := engine.GenerateSlideImage(ctx, slide.Content, styleImage, p.Style.Prompt)
	if err != nil {
		logger.Error("slide image generation failed", "engine", engine.Name(), "error", err)
		return nil, generationError(err)
	}

	// 4. Store image, thumbnail and placeholder.
	img := &domain.SlideImage{Hash: contentHash, CreatedAt: s.store.Now()}
	if thumb, err := images.Thumbnail(data); err != nil {
		logger.Warn("failed to create thumbnail", "error", err)
	} else {
		if _, err := s.blobs.SaveThumbnail(slug, sid, contentHash, thumb); err != nil {
			logger.Warn("failed to save thumbnail", "error", err)
		}
		if bh, err := images.ComputeBlurHash(thumb); err != nil {
			logger.Debug("failed to compute blurhash", "error", err)
		} else {
			img.BlurHash = bh
		}
	}
	url, err := s.blobs.SaveImage(slug, sid, contentHash, data)
	if err != nil {
		return nil, err
	}
	img.Path = url

	// 5. Reconcile against the latest document.
	rec, err := s.record(ctx, slug, sid, img, true)
	if err != nil {
		return nil, err
	}
	logger.Info("slide image generated", "engine", engine.Name(), "duration_ms", time.Since(started).Milliseconds())
	return rec, nil
}

// record appends img to the slide unless its hash is already recorded. When
// generated is set the generation is counted even if the record existed.
// A slide deleted in the meantime leaves the blob orphaned.
func (s *ImageService) record(ctx context.Context, slug, sid string, img *domain.SlideImage, generated bool) (*domain.SlideImage, error) {
	var out *domain.SlideImage
	_, err := s.store.Update(ctx, slug, func(p *domain.Project) error {
		slide, _ := p.Slide(sid)
		if slide == nil {
			return domainerrors.SlideNotFound(sid)
		}
		// Copy so a retried attempt does not alias a record from a discarded load.
		candidate := *img
		out, _ = slide.AddImage(&candidate)
		if generated {
			p.Cost.RecordSlide(s.store.Pricing())
		}
		p.Touch(s.store.Now())
		return nil
	})
	if err != nil {
		return nil, storeError(err, slug)
	}
	return out, nil
}

// GenerateImageAsync registers a generation task, announces it and runs it in
// the background. The task outlives the request that started it.
func (s *ImageService) GenerateImageAsync(ctx context.Context, slug, sid string, force bool) (string, error) {
	if err := validation.Identifiers("slug", slug, "sid", sid); err != nil {
		return "", err
	}

	taskID := id.Task()
	s.hub.AddTask(slug, sid, taskID)
	s.hub.Publish(ctx, notify.GenerationStarted(slug, taskID, sid))

	bg := context.WithoutCancel(ctx)
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		s.runTask(bg, slug, sid, taskID, force)
	}()

	return taskID, nil
}

func (s *ImageService) runTask(ctx context.Context, slug, sid, taskID string, force bool) {
	logger := s.logger.With("slug", slug, "sid", sid, "task_id", taskID)
	logger.Info("generation task started")

	img, err := s.GenerateImage(ctx, slug, sid, force)
	s.hub.RemoveTask(slug, sid, taskID)

	if err != nil {
		logger.Warn("generation task failed", "error", err)
		s.hub.Publish(ctx, notify.GenerationFailed(slug, taskID, sid, err.Error()))
		return
	}

	thumb := img.Path
	if s.blobs.ThumbnailExists(slug, sid, img.Hash) {
		thumb = s.blobs.ThumbnailURL(slug, sid, img.Hash)
	}
	s.hub.Publish(ctx, notify.GenerationCompleted(slug, taskID, sid, notify.ImageRef{
		Hash:         img.Hash,
		URL:          img.Path,
		ThumbnailURL: thumb,
	}))
	logger.Info("generation task completed", "hash", img.Hash)
}

// DeleteImage removes an image file and its record. Cost counters are not
// decremented.
func (s *ImageService) DeleteImage(ctx context.Context, slug, sid, imageHash string) error {
	if err := validation.Identifiers("slug", slug, "sid", sid, "hash", imageHash); err != nil {
		return err
	}

	p, err := s.store.Load(ctx, slug)
	if err != nil {
		return storeError(err, slug)
	}
	slide, _ := p.Slide(sid)
	if slide == nil {
		return domainerrors.SlideNotFound(sid)
	}
	if slide.Image(imageHash) == nil {
		return domainerrors.ImageNotFound(imageHash)
	}

	if _, err := s.blobs.DeleteImage(slug, sid, imageHash); err != nil {
		return fmt.Errorf("delete image file: %w", err)
	}

	_, err = s.store.Update(ctx, slug, func(p *domain.Project) error {
		if slide, _ := p.Slide(sid); slide != nil && slide.RemoveImage(imageHash) {
			p.Touch(s.store.Now())
		}
		return nil
	})
	if err != nil {
		return storeError(err, slug)
	}

	s.hub.Publish(ctx, notify.ImageDeleted(slug, sid, imageHash))
	s.logger.Info("image deleted", "slug", slug, "sid", sid, "hash", imageHash)
	return nil
}

// Shutdown waits for running generation tasks or until ctx is done.
func (s *ImageService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

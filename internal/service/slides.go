package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lehuagavin/genslides/internal/domain"
	domainerrors "github.com/lehuagavin/genslides/internal/errors"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/lehuagavin/genslides/internal/validation"
)

// MaxTitleLength bounds project titles in characters.
const MaxTitleLength = 200

// SlidesService orchestrates project and slide CRUD.
// Every mutation is a store.Update so concurrent writers never lose each other's changes.
type SlidesService struct {
	store   *store.Store
	blobs   *images.Storage
	engines *generation.Registry
	logger  *slog.Logger
}

// NewSlidesService creates a new slides service.
func NewSlidesService(st *store.Store, blobs *images.Storage, engines *generation.Registry, logger *slog.Logger) *SlidesService {
	return &SlidesService{
		store:   st,
		blobs:   blobs,
		engines: engines,
		logger:  logger,
	}
}

// ListProjects returns every readable project, most recently updated first.
func (s *SlidesService) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	return s.store.List(ctx)
}

// GetProject returns the project for slug, creating an empty one on first access.
func (s *SlidesService) GetProject(ctx context.Context, slug string) (*domain.Project, error) {
	if err := validation.Identifier("slug", slug); err != nil {
		return nil, err
	}
	p, err := s.store.GetOrCreate(ctx, slug)
	return p, storeError(err, slug)
}

// LoadProject returns an existing project without creating it.
func (s *SlidesService) LoadProject(ctx context.Context, slug string) (*domain.Project, error) {
	if err := validation.Identifier("slug", slug); err != nil {
		return nil, err
	}
	p, err := s.store.Load(ctx, slug)
	return p, storeError(err, slug)
}

// DeleteProject removes a project with all of its files.
func (s *SlidesService) DeleteProject(ctx context.Context, slug string) error {
	if err := validation.Identifier("slug", slug); err != nil {
		return err
	}

	existed, err := s.store.Delete(ctx, slug)
	if err != nil {
		return storeError(err, slug)
	}
	if !existed {
		return domainerrors.ProjectNotFound(slug)
	}

	// Blobs normally share the project directory; this covers a separate blob root.
	if err := s.blobs.DeleteProject(slug); err != nil {
		s.logger.Warn("failed to delete project images", "slug", slug, "error", err)
	}
	s.logger.Info("project deleted", "slug", slug)
	return nil
}

// UpdateTitle renames a project.
func (s *SlidesService) UpdateTitle(ctx context.Context, slug, title string) (*domain.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" || len([]rune(title)) > MaxTitleLength {
		return nil, domainerrors.InvalidRequestf("Title must be 1-%d characters", MaxTitleLength)
	}
	return s.mutate(ctx, slug, func(p *domain.Project) error {
		p.Title = title
		return nil
	})
}

// CreateSlide adds a slide after afterSID, or at the end when afterSID is empty.
func (s *SlidesService) CreateSlide(ctx context.Context, slug, content, afterSID string) (*domain.Slide, error) {
	if err := checkContent(content); err != nil {
		return nil, err
	}
	if afterSID != "" {
		if err := validation.Identifier("sid", afterSID); err != nil {
			return nil, err
		}
	}

	sid, err := s.store.GenerateSlideID()
	if err != nil {
		return nil, err
	}

	var created *domain.Slide
	_, err = s.mutate(ctx, slug, func(p *domain.Project) error {
		created = domain.NewSlide(sid, content, s.store.Now())
		if !p.InsertSlide(created, afterSID) {
			return domainerrors.SlideNotFound(afterSID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slide created", "slug", slug, "sid", sid, "after_sid", afterSID)
	return created, nil
}

// UpdateSlide replaces a slide's content. Images are kept; the ones generated
// from older content are reported as unmatched.
func (s *SlidesService) UpdateSlide(ctx context.Context, slug, sid, content string) (*domain.Slide, error) {
	if err := validation.Identifier("sid", sid); err != nil {
		return nil, err
	}
	if err := checkContent(content); err != nil {
		return nil, err
	}

	var updated *domain.Slide
	_, err := s.mutate(ctx, slug, func(p *domain.Project) error {
		slide, _ := p.Slide(sid)
		if slide == nil {
			return domainerrors.SlideNotFound(sid)
		}
		slide.SetContent(content, s.store.Now())
		updated = slide
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSlide removes a slide and its image directory.
func (s *SlidesService) DeleteSlide(ctx context.Context, slug, sid string) error {
	if err := validation.Identifier("sid", sid); err != nil {
		return err
	}

	_, err := s.mutate(ctx, slug, func(p *domain.Project) error {
		if !p.RemoveSlide(sid) {
			return domainerrors.SlideNotFound(sid)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.blobs.DeleteSlideImages(slug, sid); err != nil {
		s.logger.Warn("failed to delete slide images", "slug", slug, "sid", sid, "error", err)
	}
	s.logger.Info("slide deleted", "slug", slug, "sid", sid)
	return nil
}

// ReorderSlides applies order, which must list every slide exactly once.
// An unknown sid is SLIDE_NOT_FOUND; a missing or repeated one is INVALID_REQUEST.
// Nothing changes on error.
func (s *SlidesService) ReorderSlides(ctx context.Context, slug string, order []string) ([]*domain.Slide, error) {
	for _, sid := range order {
		if err := validation.Identifier("sid", sid); err != nil {
			return nil, err
		}
	}

	p, err := s.mutate(ctx, slug, func(p *domain.Project) error {
		err := p.Reorder(order)
		var re *domain.ReorderError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &re) && re.UnknownSID != "":
			return domainerrors.SlideNotFound(re.UnknownSID)
		default:
			return domainerrors.InvalidRequest(err.Error())
		}
	})
	if err != nil {
		return nil, err
	}
	return p.Slides, nil
}

// EngineInfo describes the engine a project uses and which engines can be chosen.
type EngineInfo struct {
	Engine    string
	Available map[string]bool
}

// GetEngine returns the project's effective engine.
func (s *SlidesService) GetEngine(ctx context.Context, slug string) (*EngineInfo, error) {
	p, err := s.GetProject(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &EngineInfo{Engine: s.effectiveEngine(p.ImageEngine), Available: s.engines.Status()}, nil
}

// SetEngine selects the engine used for the project's future generations.
func (s *SlidesService) SetEngine(ctx context.Context, slug, engine string) (*EngineInfo, error) {
	if !s.engines.Has(engine) {
		return nil, domainerrors.InvalidRequestf("Unknown image engine %q (valid: %s)", engine, strings.Join(s.engines.Names(), ", "))
	}
	p, err := s.mutate(ctx, slug, func(p *domain.Project) error {
		p.ImageEngine = engine
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("image engine changed", "slug", slug, "engine", engine)
	return &EngineInfo{Engine: p.ImageEngine, Available: s.engines.Status()}, nil
}

func (s *SlidesService) effectiveEngine(name string) string {
	if s.engines.Has(name) {
		return name
	}
	return s.engines.Default()
}

// mutate validates slug, creates the project if needed and applies fn under
// optimistic concurrency, bumping updated_at.
func (s *SlidesService) mutate(ctx context.Context, slug string, fn func(p *domain.Project) error) (*domain.Project, error) {
	if _, err := s.GetProject(ctx, slug); err != nil {
		return nil, err
	}
	p, err := s.store.Update(ctx, slug, func(p *domain.Project) error {
		if err := fn(p); err != nil {
			return err
		}
		p.Touch(s.store.Now())
		return nil
	})
	return p, storeError(err, slug)
}

func checkContent(content string) error {
	if len([]rune(content)) > domain.MaxSlideContentLength {
		return domainerrors.InvalidRequestf("Slide content must not exceed %d characters", domain.MaxSlideContentLength)
	}
	return nil
}

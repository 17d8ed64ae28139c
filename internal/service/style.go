package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lehuagavin/genslides/internal/domain"
	domainerrors "github.com/lehuagavin/genslides/internal/errors"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/lehuagavin/genslides/internal/id"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/lehuagavin/genslides/internal/validation"
)

// StyleService generates style candidates and manages the project style.
type StyleService struct {
	store   *store.Store
	blobs   *images.Storage
	engines *generation.Registry
	logger  *slog.Logger
}

// NewStyleService creates a new style service.
func NewStyleService(st *store.Store, blobs *images.Storage, engines *generation.Registry, logger *slog.Logger) *StyleService {
	return &StyleService{
		store:   st,
		blobs:   blobs,
		engines: engines,
		logger:  logger,
	}
}

// ListTemplates returns the preset style templates.
func (s *StyleService) ListTemplates() []domain.StyleTemplate {
	return domain.StyleTemplates()
}

// GetStyle returns the project's style, or nil when none is set.
func (s *StyleService) GetStyle(ctx context.Context, slug string) (*domain.Style, error) {
	if err := validation.Identifier("slug", slug); err != nil {
		return nil, err
	}
	p, err := s.store.GetOrCreate(ctx, slug)
	if err != nil {
		return nil, storeError(err, slug)
	}
	return p.Style, nil
}

// GenerateCandidates asks the project's engine for StyleCandidateCount style
// images and stores the ones that came back. Every returned image is counted.
func (s *StyleService) GenerateCandidates(ctx context.Context, slug, prompt string) ([]domain.StyleCandidate, error) {
	if err := validation.Identifier("slug", slug); err != nil {
		return nil, err
	}
	if err := checkStylePrompt(prompt); err != nil {
		return nil, err
	}

	p, err := s.store.GetOrCreate(ctx, slug)
	if err != nil {
		return nil, storeError(err, slug)
	}

	engine := s.engines.Resolve(p.ImageEngine)
	if engine == nil {
		return nil, domainerrors.GenerationFailed(generation.ErrNotConfigured)
	}

	logger := s.logger.With("slug", slug, "engine", engine.Name())
	logger.Info("generating style candidates")

	results, err := engine.GenerateStyleImages(ctx, prompt, generation.StyleCandidateCount)
	if err != nil {
		logger.Error("style generation failed", "error", err)
		return nil, generationError(err)
	}

	candidates := make([]domain.StyleCandidate, 0, len(results))
	for _, data := range results {
		cid, err := id.Candidate()
		if err != nil {
			return nil, err
		}
		c, err := s.blobs.SaveCandidate(slug, cid, data)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	_, err = s.store.Update(ctx, slug, func(p *domain.Project) error {
		p.Cost.RecordStyle(len(results), s.store.Pricing())
		p.Touch(s.store.Now())
		return nil
	})
	if err != nil {
		return nil, storeError(err, slug)
	}

	logger.Info("style candidates generated", "count", len(candidates))
	return candidates, nil
}

// GenerateFromTemplate generates candidates from a preset. A non-empty
// customPrompt replaces the preset's prompt.
func (s *StyleService) GenerateFromTemplate(ctx context.Context, slug, styleType, customPrompt string) ([]domain.StyleCandidate, domain.StyleTemplate, error) {
	tpl, ok := domain.LookupStyleTemplate(domain.StyleType(styleType))
	if !ok {
		return nil, domain.StyleTemplate{}, domainerrors.InvalidRequestf("Unknown style type: %s", styleType)
	}

	prompt := strings.TrimSpace(customPrompt)
	if prompt == "" {
		prompt = tpl.PreviewPrompt
	}
	if prompt == "" {
		return nil, tpl, domainerrors.InvalidRequest("A custom prompt is required for this style type")
	}

	candidates, err := s.GenerateCandidates(ctx, slug, prompt)
	if err != nil {
		return nil, tpl, err
	}
	return candidates, tpl, nil
}

// SaveStyleInput selects a candidate as the project style.
type SaveStyleInput struct {
	Prompt      string
	CandidateID string
	StyleType   string // unknown values are stored as custom
	StyleName   string
}

// SaveStyle promotes a candidate to the project style. An unknown candidate is
// rejected and leaves the current style untouched. Remaining candidates are
// cleared afterwards.
func (s *StyleService) SaveStyle(ctx context.Context, slug string, in SaveStyleInput) (*domain.Style, error) {
	if err := validation.Identifiers("slug", slug, "candidate_id", in.CandidateID); err != nil {
		return nil, err
	}
	if err := checkStylePrompt(in.Prompt); err != nil {
		return nil, err
	}
	if _, err := s.store.GetOrCreate(ctx, slug); err != nil {
		return nil, storeError(err, slug)
	}

	styleURL, err := s.blobs.PromoteCandidate(slug, in.CandidateID)
	if isBlobMissing(err) {
		return nil, domainerrors.InvalidRequestf("Candidate '%s' not found", in.CandidateID)
	}
	if err != nil {
		return nil, err
	}

	style := &domain.Style{
		Prompt:    in.Prompt,
		Image:     styleURL,
		CreatedAt: s.store.Now(),
		StyleName: in.StyleName,
	}
	if in.StyleType != "" {
		style.StyleType = domain.ParseStyleType(in.StyleType)
	}

	_, err = s.store.Update(ctx, slug, func(p *domain.Project) error {
		p.Style = style
		p.Touch(s.store.Now())
		return nil
	})
	if err != nil {
		return nil, storeError(err, slug)
	}

	if err := s.blobs.ClearCandidates(slug); err != nil {
		s.logger.Warn("failed to clear style candidates", "slug", slug, "error", err)
	}
	s.logger.Info("style saved", "slug", slug, "candidate_id", in.CandidateID, "style_type", style.StyleType)
	return style, nil
}

func checkStylePrompt(prompt string) error {
	n := len([]rune(strings.TrimSpace(prompt)))
	if n == 0 || n > domain.MaxStylePromptLength {
		return domainerrors.InvalidRequestf("Style prompt must be 1-%d characters", domain.MaxStylePromptLength)
	}
	return nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lehuagavin/genslides/internal/api/dto"
	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/service"
)

func (s *Server) registerStyleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listStyleTemplates",
		Method:      http.MethodGet,
		Path:        "/api/style/templates",
		Summary:     "List style templates",
		Description: "Returns the preset styles",
		Tags:        []string{"Style"},
	}, s.handleListStyleTemplates)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStyle",
		Method:      http.MethodGet,
		Path:        "/api/slides/{slug}/style",
		Summary:     "Get style",
		Description: "Returns the project style, or null when none is set",
		Tags:        []string{"Style"},
	}, s.handleGetStyle)

	huma.Register(s.api, huma.Operation{
		OperationID: "generateStyle",
		Method:      http.MethodPost,
		Path:        "/api/slides/{slug}/style/generate",
		Summary:     "Generate style candidates",
		Description: "Generates candidate style images from a prompt",
		Tags:        []string{"Style"},
		Metadata:    map[string]any{metaRateLimited: true},
	}, s.handleGenerateStyle)

	huma.Register(s.api, huma.Operation{
		OperationID: "generateStyleFromTemplate",
		Method:      http.MethodPost,
		Path:        "/api/slides/{slug}/style/generate-from-template",
		Summary:     "Generate candidates from template",
		Description: "Generates candidate style images from a preset, optionally overriding its prompt",
		Tags:        []string{"Style"},
		Metadata:    map[string]any{metaRateLimited: true},
	}, s.handleGenerateStyleFromTemplate)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveStyle",
		Method:      http.MethodPut,
		Path:        "/api/slides/{slug}/style",
		Summary:     "Save style",
		Description: "Makes a candidate the project style and discards the other candidates",
		Tags:        []string{"Style"},
	}, s.handleSaveStyle)
}

func (s *Server) handleListStyleTemplates(_ context.Context, _ *struct{}) (*dto.TemplatesOutput, error) {
	return &dto.TemplatesOutput{
		Body: dto.TemplatesResponse{Templates: s.services.Style.ListTemplates()},
	}, nil
}

func (s *Server) handleGetStyle(ctx context.Context, input *dto.StyleInput) (*dto.GetStyleOutput, error) {
	style, err := s.services.Style.GetStyle(ctx, input.Slug)
	if err != nil {
		return nil, s.handleError(err, "get style", "slug", input.Slug)
	}
	return &dto.GetStyleOutput{
		Body: dto.GetStyleResponse{
			HasStyle: style != nil,
			Style:    s.presenter.Style(input.Slug, style),
		},
	}, nil
}

func (s *Server) handleGenerateStyle(ctx context.Context, input *dto.GenerateStyleInput) (*dto.GenerateStyleOutput, error) {
	candidates, err := s.services.Style.GenerateCandidates(ctx, input.Slug, input.Body.Prompt)
	if err != nil {
		return nil, s.handleError(err, "generate style", "slug", input.Slug)
	}
	return &dto.GenerateStyleOutput{
		Body: dto.GenerateStyleResponse{
			Candidates: candidateViews(candidates),
			Prompt:     input.Body.Prompt,
		},
	}, nil
}

func (s *Server) handleGenerateStyleFromTemplate(ctx context.Context, input *dto.GenerateFromTemplateInput) (*dto.GenerateFromTemplateOutput, error) {
	candidates, tpl, err := s.services.Style.GenerateFromTemplate(ctx, input.Slug, input.Body.StyleType, input.Body.CustomPrompt)
	if err != nil {
		return nil, s.handleError(err, "generate style from template", "slug", input.Slug, "style_type", input.Body.StyleType)
	}
	return &dto.GenerateFromTemplateOutput{
		Body: dto.GenerateFromTemplateResponse{
			Candidates: candidateViews(candidates),
			Template:   tpl,
		},
	}, nil
}

func (s *Server) handleSaveStyle(ctx context.Context, input *dto.SaveStyleInput) (*dto.SaveStyleOutput, error) {
	style, err := s.services.Style.SaveStyle(ctx, input.Slug, service.SaveStyleInput{
		Prompt:      input.Body.Prompt,
		CandidateID: input.Body.CandidateID,
		StyleType:   input.Body.StyleType,
		StyleName:   input.Body.StyleName,
	})
	if err != nil {
		return nil, s.handleError(err, "save style", "slug", input.Slug)
	}
	return &dto.SaveStyleOutput{
		Body: dto.SaveStyleResponse{Success: true, Style: s.presenter.Style(input.Slug, style)},
	}, nil
}

func candidateViews(candidates []domain.StyleCandidate) []dto.Candidate {
	out := make([]dto.Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, dto.Candidate{ID: c.ID, URL: c.Path})
	}
	return out
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lehuagavin/genslides/internal/api/dto"
)

func (s *Server) registerSlideRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createSlide",
		Method:      http.MethodPost,
		Path:        "/api/slides/{slug}",
		Summary:     "Create slide",
		Description: "Adds a slide after after_sid, or at the end",
		Tags:        []string{"Slides"},
	}, s.handleCreateSlide)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderSlides",
		Method:      http.MethodPut,
		Path:        "/api/slides/{slug}/reorder",
		Summary:     "Reorder slides",
		Description: "Applies a new order; the list must name every slide exactly once",
		Tags:        []string{"Slides"},
	}, s.handleReorderSlides)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSlide",
		Method:      http.MethodPut,
		Path:        "/api/slides/{slug}/{sid}",
		Summary:     "Update slide",
		Description: "Replaces slide content; existing images are kept",
		Tags:        []string{"Slides"},
	}, s.handleUpdateSlide)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSlide",
		Method:      http.MethodDelete,
		Path:        "/api/slides/{slug}/{sid}",
		Summary:     "Delete slide",
		Description: "Deletes a slide and its images",
		Tags:        []string{"Slides"},
	}, s.handleDeleteSlide)
}

func (s *Server) handleCreateSlide(ctx context.Context, input *dto.CreateSlideInput) (*dto.SlideOutput, error) {
	slide, err := s.services.Slides.CreateSlide(ctx, input.Slug, input.Body.Content, input.Body.AfterSID)
	if err != nil {
		return nil, s.handleError(err, "create slide", "slug", input.Slug)
	}
	return &dto.SlideOutput{Body: s.presenter.Slide(input.Slug, slide)}, nil
}

func (s *Server) handleUpdateSlide(ctx context.Context, input *dto.UpdateSlideInput) (*dto.SlideOutput, error) {
	slide, err := s.services.Slides.UpdateSlide(ctx, input.Slug, input.SID, input.Body.Content)
	if err != nil {
		return nil, s.handleError(err, "update slide", "slug", input.Slug, "sid", input.SID)
	}
	return &dto.SlideOutput{Body: s.presenter.Slide(input.Slug, slide)}, nil
}

func (s *Server) handleDeleteSlide(ctx context.Context, input *dto.SlideInput) (*dto.DeleteSlideOutput, error) {
	if err := s.services.Slides.DeleteSlide(ctx, input.Slug, input.SID); err != nil {
		return nil, s.handleError(err, "delete slide", "slug", input.Slug, "sid", input.SID)
	}
	return &dto.DeleteSlideOutput{
		Body: dto.DeleteSlideResponse{Success: true, DeletedSID: input.SID},
	}, nil
}

func (s *Server) handleReorderSlides(ctx context.Context, input *dto.ReorderInput) (*dto.ReorderOutput, error) {
	slides, err := s.services.Slides.ReorderSlides(ctx, input.Slug, input.Body.Order)
	if err != nil {
		return nil, s.handleError(err, "reorder slides", "slug", input.Slug)
	}
	return &dto.ReorderOutput{
		Body: dto.ReorderResponse{Success: true, Slides: s.presenter.Slides(input.Slug, slides)},
	}, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lehuagavin/genslides/internal/api/dto"
	"github.com/lehuagavin/genslides/internal/service"
)

func (s *Server) registerImageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSlideImages",
		Method:      http.MethodGet,
		Path:        "/api/slides/{slug}/{sid}/images",
		Summary:     "List slide images",
		Description: "Returns every image of a slide, flagging those generated from the present content",
		Tags:        []string{"Images"},
	}, s.handleListSlideImages)

	huma.Register(s.api, huma.Operation{
		OperationID: "generateSlideImage",
		Method:      http.MethodPost,
		Path:        "/api/slides/{slug}/{sid}/generate",
		Summary:     "Generate slide image",
		Description: "Submits a background generation task. Progress is reported on the project's event streams.",
		Tags:        []string{"Images"},
		Metadata:    map[string]any{metaRateLimited: true},
	}, s.handleGenerateSlideImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSlideImage",
		Method:      http.MethodDelete,
		Path:        "/api/slides/{slug}/{sid}/images/{hash}",
		Summary:     "Delete slide image",
		Description: "Deletes one image of a slide. Cost counters are not decremented.",
		Tags:        []string{"Images"},
	}, s.handleDeleteSlideImage)
}

func (s *Server) handleListSlideImages(ctx context.Context, input *dto.SlideInput) (*dto.SlideImagesOutput, error) {
	slide, err := s.services.Images.GetSlide(ctx, input.Slug, input.SID)
	if err != nil {
		return nil, s.handleError(err, "list slide images", "slug", input.Slug, "sid", input.SID)
	}
	return &dto.SlideImagesOutput{Body: s.presenter.SlideImages(input.Slug, slide)}, nil
}

func (s *Server) handleGenerateSlideImage(ctx context.Context, input *dto.GenerateInput) (*dto.GenerateOutput, error) {
	force := input.Body != nil && input.Body.Force

	taskID, err := s.services.Images.GenerateImageAsync(ctx, input.Slug, input.SID, force)
	if err != nil {
		return nil, s.handleError(err, "submit generation", "slug", input.Slug, "sid", input.SID)
	}
	return &dto.GenerateOutput{
		Body: dto.GenerateTaskResponse{
			TaskID:  taskID,
			Status:  service.TaskStatusPending,
			Message: "Image generation task submitted",
		},
	}, nil
}

func (s *Server) handleDeleteSlideImage(ctx context.Context, input *dto.DeleteImageInput) (*dto.DeleteImageOutput, error) {
	if err := s.services.Images.DeleteImage(ctx, input.Slug, input.SID, input.Hash); err != nil {
		return nil, s.handleError(err, "delete image", "slug", input.Slug, "sid", input.SID, "hash", input.Hash)
	}
	return &dto.DeleteImageOutput{
		Body: dto.DeleteImageResponse{Success: true, DeletedHash: input.Hash},
	}, nil
}

package dto

import "github.com/lehuagavin/genslides/internal/dto"

// SlideImagesOutput wraps the image history of a slide.
type SlideImagesOutput struct {
	Body dto.SlideImages
}

// GenerateRequest starts a generation.
type GenerateRequest struct {
	Force bool `json:"force,omitempty" doc:"Generate even if an image exists for the present content"`
}

// GenerateInput wraps GenerateRequest. The body is optional.
type GenerateInput struct {
	SlideParams
	Body *GenerateRequest `required:"false"`
}

// GenerateTaskResponse identifies the submitted task.
type GenerateTaskResponse struct {
	TaskID  string `json:"task_id" doc:"Task ID reported in generation events"`
	Status  string `json:"status" doc:"Always pending"`
	Message string `json:"message"`
}

// GenerateOutput wraps GenerateTaskResponse.
type GenerateOutput struct {
	Body GenerateTaskResponse
}

// DeleteImageInput addresses one image.
type DeleteImageInput struct {
	SlideParams
	Hash string `path:"hash" maxLength:"64" pattern:"^[a-zA-Z0-9_-]+$" doc:"Content hash of the image"`
}

// DeleteImageResponse confirms an image deletion.
type DeleteImageResponse struct {
	Success     bool   `json:"success"`
	DeletedHash string `json:"deleted_hash"`
}

// DeleteImageOutput wraps DeleteImageResponse.
type DeleteImageOutput struct {
	Body DeleteImageResponse
}

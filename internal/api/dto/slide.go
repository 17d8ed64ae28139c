package dto

import "github.com/lehuagavin/genslides/internal/dto"

// CreateSlideRequest adds a slide.
type CreateSlideRequest struct {
	Content  string `json:"content" maxLength:"20000" doc:"Slide text"`
	AfterSID string `json:"after_sid,omitempty" maxLength:"64" doc:"Insert after this slide; appended when omitted"`
}

// CreateSlideInput wraps CreateSlideRequest.
type CreateSlideInput struct {
	SlugParam
	Body CreateSlideRequest
}

// SlideOutput wraps one slide view.
type SlideOutput struct {
	Body dto.Slide
}

// UpdateSlideRequest replaces slide content.
type UpdateSlideRequest struct {
	Content string `json:"content" maxLength:"20000" doc:"Slide text"`
}

// UpdateSlideInput wraps UpdateSlideRequest.
type UpdateSlideInput struct {
	SlideParams
	Body UpdateSlideRequest
}

// SlideInput addresses a slide.
type SlideInput struct {
	SlideParams
}

// DeleteSlideResponse confirms a slide deletion.
type DeleteSlideResponse struct {
	Success    bool   `json:"success"`
	DeletedSID string `json:"deleted_sid"`
}

// DeleteSlideOutput wraps DeleteSlideResponse.
type DeleteSlideOutput struct {
	Body DeleteSlideResponse
}

// ReorderRequest lists every slide id in the new order.
type ReorderRequest struct {
	Order []string `json:"order" doc:"All slide IDs, each exactly once"`
}

// ReorderInput wraps ReorderRequest.
type ReorderInput struct {
	SlugParam
	Body ReorderRequest
}

// ReorderResponse returns the reordered slides.
type ReorderResponse struct {
	Success bool        `json:"success"`
	Slides  []dto.Slide `json:"slides"`
}

// ReorderOutput wraps ReorderResponse.
type ReorderOutput struct {
	Body ReorderResponse
}

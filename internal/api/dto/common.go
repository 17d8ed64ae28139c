// Package dto provides request and response types for the GenSlides API.
// These types are used by huma to generate OpenAPI documentation and perform validation.
package dto

// SlugParam is the project path parameter.
type SlugParam struct {
	Slug string `path:"slug" maxLength:"64" pattern:"^[a-zA-Z0-9_-]+$" doc:"Project slug"`
}

// SlideParams addresses one slide.
type SlideParams struct {
	Slug string `path:"slug" maxLength:"64" pattern:"^[a-zA-Z0-9_-]+$" doc:"Project slug"`
	SID  string `path:"sid" maxLength:"64" pattern:"^[a-zA-Z0-9_-]+$" doc:"Slide ID"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success bool `json:"success" doc:"Always true on success"`
}

// ErrorDetail is the error payload of every failed request.
type ErrorDetail struct {
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// ErrorResponse wraps ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// SuccessOutput wraps SuccessResponse.
type SuccessOutput struct {
	Body SuccessResponse
}

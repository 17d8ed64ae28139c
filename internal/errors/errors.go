// Package errors provides the GenSlides error taxonomy: coded domain errors that map to HTTP statuses.
//
// Usage:
//
//	// In services - return typed errors
//	if slide == nil {
//	    return errors.SlideNotFound(sid)
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrStyleNotSet) {
//	    ...
//	}
//
//	// Or switch on the code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    status := domainErr.HTTPStatus()
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes surfaced to API clients.
const (
	CodeProjectNotFound  Code = "PROJECT_NOT_FOUND"
	CodeSlideNotFound    Code = "SLIDE_NOT_FOUND"
	CodeImageNotFound    Code = "IMAGE_NOT_FOUND"
	CodeStyleNotSet      Code = "STYLE_NOT_SET"
	CodeInvalidRequest   Code = "INVALID_REQUEST"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeVersionConflict  Code = "VERSION_CONFLICT"
	CodeGenerationFailed Code = "GENERATION_FAILED"
	CodeUpstreamAPI      Code = "UPSTREAM_API_ERROR"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeProjectNotFound, CodeSlideNotFound, CodeImageNotFound:
		return http.StatusNotFound
	case CodeStyleNotSet, CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeVersionConflict:
		return http.StatusConflict
	case CodeUpstreamAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrProjectNotFound  = &Error{Code: CodeProjectNotFound, Message: "project not found"}
	ErrSlideNotFound    = &Error{Code: CodeSlideNotFound, Message: "slide not found"}
	ErrImageNotFound    = &Error{Code: CodeImageNotFound, Message: "image not found"}
	ErrStyleNotSet      = &Error{Code: CodeStyleNotSet, Message: "style not set"}
	ErrInvalidRequest   = &Error{Code: CodeInvalidRequest, Message: "invalid request"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation error"}
	ErrVersionConflict  = &Error{Code: CodeVersionConflict, Message: "project was modified concurrently"}
	ErrGenerationFailed = &Error{Code: CodeGenerationFailed, Message: "image generation failed"}
	ErrUpstreamAPI      = &Error{Code: CodeUpstreamAPI, Message: "image provider error"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
)

// ProjectNotFound reports a missing project.
func ProjectNotFound(slug string) *Error {
	return &Error{Code: CodeProjectNotFound, Message: fmt.Sprintf("Project '%s' not found", slug)}
}

// SlideNotFound reports a missing slide.
func SlideNotFound(sid string) *Error {
	return &Error{Code: CodeSlideNotFound, Message: fmt.Sprintf("Slide '%s' not found", sid)}
}

// ImageNotFound reports a missing image.
func ImageNotFound(hash string) *Error {
	return &Error{Code: CodeImageNotFound, Message: fmt.Sprintf("Image '%s' not found", hash)}
}

// StyleNotSet reports that the project needs a style first.
func StyleNotSet() *Error {
	return &Error{Code: CodeStyleNotSet, Message: "Project style must be set before generating images"}
}

// InvalidRequest creates an invalid request error.
func InvalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: msg}
}

// InvalidRequestf creates an invalid request error with formatted message.
func InvalidRequestf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// GenerationFailed wraps a provider failure that produced no usable image.
func GenerationFailed(err error) *Error {
	return &Error{Code: CodeGenerationFailed, Message: "Image generation failed", cause: err}
}

// UpstreamAPI wraps a provider call that itself errored.
func UpstreamAPI(err error) *Error {
	return &Error{Code: CodeUpstreamAPI, Message: "Image provider request failed", cause: err}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/lehuagavin/genslides/internal/errors"
	"github.com/lehuagavin/genslides/internal/http/response"
)

// APIError is a custom error type that implements huma.StatusError.
// It renders as {"error": {"code", "message", "details"}}.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status int
	Body   apiErrorDetail `json:"error"`
}

type apiErrorDetail struct {
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Body.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var details []*huma.ErrorDetail
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status: domainErr.HTTPStatus(),
					Body: apiErrorDetail{
						Code:    string(domainErr.Code),
						Message: domainErr.Message,
						Details: domainErr.Details,
					},
				}
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				details = append(details, detail)
			}
		}

		// Internal causes are logged by handleError, never echoed.
		if status == http.StatusInternalServerError {
			message = "Internal server error"
		}

		apiErr := &APIError{
			status: status,
			Body:   apiErrorDetail{Code: statusToCode(status), Message: message},
		}
		if len(details) > 0 {
			apiErr.Body.Details = details
		}
		return apiErr
	}
}

// statusToCode maps HTTP status codes huma produces itself to our error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeInvalidRequest)
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusTooManyRequests:
		return response.CodeRateLimited
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if status < http.StatusInternalServerError {
			return string(domainerrors.CodeInvalidRequest)
		}
		return string(domainerrors.CodeInternal)
	}
}

// handleError returns err for huma to render. Domain errors pass through;
// anything else is logged and becomes INTERNAL_ERROR.
func (s *Server) handleError(err error, op string, args ...any) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		if domainErr.Code == domainerrors.CodeInternal ||
			domainErr.Code == domainerrors.CodeGenerationFailed ||
			domainErr.Code == domainerrors.CodeUpstreamAPI {
			s.logger.Error(op+" failed", append(args, "error", err)...)
		}
		return domainErr
	}

	s.logger.Error(op+" failed", append(args, "error", err)...)
	return domainerrors.Internal("Internal server error").WithCause(err)
}

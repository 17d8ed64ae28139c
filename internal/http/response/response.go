// Package response writes JSON bodies and error envelopes for handlers that sit
// outside the typed API (rate limiting, notification streams, static files).
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/lehuagavin/genslides/internal/errors"
)

// ErrorBody is the error envelope shared with the typed API.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Error writes the error envelope for a domain error.
func Error(w http.ResponseWriter, err *domainerrors.Error, logger *slog.Logger) {
	JSON(w, err.HTTPStatus(), ErrorBody{Error: ErrorDetail{
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}}, logger)
}

// BadRequest writes a 400 INVALID_REQUEST response.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.InvalidRequest(message), logger)
}

// NotFound writes a 404 response with the given code.
func NotFound(w http.ResponseWriter, code domainerrors.Code, message string, logger *slog.Logger) {
	Error(w, &domainerrors.Error{Code: code, Message: message}, logger)
}

// TooManyRequests writes a 429 response. retryAfter, when set, is sent as Retry-After.
func TooManyRequests(w http.ResponseWriter, message, retryAfter string, logger *slog.Logger) {
	if retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	JSON(w, http.StatusTooManyRequests, ErrorBody{Error: ErrorDetail{
		Code:    CodeRateLimited,
		Message: message,
	}}, logger)
}

// CodeRateLimited is sent with 429 responses.
const CodeRateLimited = "RATE_LIMITED"

// HandleError writes the envelope for err. Domain errors keep their code;
// anything else becomes a logged INTERNAL_ERROR.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		Error(w, de, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	Error(w, domainerrors.Internal("internal server error"), logger)
}

package generation

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error an Engine returns matches exactly one of the first two.
var (
	// ErrUpstream means the provider could not be reached or rejected the call.
	ErrUpstream = errors.New("upstream api error")

	// ErrGenerationFailed means the provider answered but produced no usable image.
	ErrGenerationFailed = errors.New("image generation failed")

	// ErrNotConfigured is returned when an engine has no API key.
	ErrNotConfigured = fmt.Errorf("%w: engine not configured", ErrGenerationFailed)

	// ErrNoImage is returned when a response carries no image data.
	ErrNoImage = fmt.Errorf("%w: no image in response", ErrGenerationFailed)
)

// Error wraps a provider failure with the engine and operation.
type Error struct {
	Engine string
	Op     string // "style", "slide"
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError attaches engine context. Errors that match neither sentinel are
// classified as generation failures.
func wrapError(engine, op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	if !errors.Is(err, ErrUpstream) && !errors.Is(err, ErrGenerationFailed) {
		err = fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return &Error{Engine: engine, Op: op, Err: err}
}

// upstreamError builds an ErrUpstream for a non-success HTTP response.
func upstreamError(status int, body []byte) error {
	const maxBody = 300
	msg := string(body)
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}
	return fmt.Errorf("%w: status %d: %s", ErrUpstream, status, msg)
}

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeProjectNotFound, http.StatusNotFound},
		{CodeSlideNotFound, http.StatusNotFound},
		{CodeImageNotFound, http.StatusNotFound},
		{CodeStyleNotSet, http.StatusBadRequest},
		{CodeInvalidRequest, http.StatusBadRequest},
		{CodeValidation, http.StatusUnprocessableEntity},
		{CodeVersionConflict, http.StatusConflict},
		{CodeGenerationFailed, http.StatusInternalServerError},
		{CodeUpstreamAPI, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := SlideNotFound("slide-abc")

	assert.True(t, Is(err, ErrSlideNotFound))
	assert.False(t, Is(err, ErrProjectNotFound))
	assert.Equal(t, "Slide 'slide-abc' not found", err.Error())
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CodeInternal, "save project")

	assert.True(t, Is(err, cause))
	assert.True(t, Is(err, ErrInternal))
	assert.Equal(t, "save project: disk full", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	var domainErr *Error
	require.True(t, As(wrapped, &domainErr))
	assert.Equal(t, CodeInternal, domainErr.Code)
}

func TestError_GenerationKinds(t *testing.T) {
	cause := fmt.Errorf("no image in response")

	gen := GenerationFailed(cause)
	up := UpstreamAPI(cause)

	assert.True(t, Is(gen, ErrGenerationFailed))
	assert.True(t, Is(up, ErrUpstreamAPI))
	assert.Equal(t, http.StatusBadGateway, up.HTTPStatus())
}

func TestError_WithDetailsCopies(t *testing.T) {
	base := InvalidRequest("bad")
	detailed := base.WithDetails(map[string]string{"field": "slug"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
	assert.Equal(t, base.Code, detailed.Code)
}

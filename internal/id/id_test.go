package id

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suffixPattern = regexp.MustCompile(`^[0-9a-z]{8}$`)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("slide")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (string, error)
		pfx  string
	}{
		{"slide", Slide, PrefixSlide},
		{"candidate", Candidate, PrefixCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.fn()
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(id, tt.pfx+"-"), id)
			assert.Regexp(t, suffixPattern, strings.TrimPrefix(id, tt.pfx+"-"))
			assert.LessOrEqual(t, len(id), 64)
		})
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate("candidate")
		assert.True(t, strings.HasPrefix(id, "candidate-"))
	})
}

func TestTask_IsUUID(t *testing.T) {
	a, b := Task(), Task()

	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

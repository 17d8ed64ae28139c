package hash

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_Deterministic(t *testing.T) {
	assert.Equal(t, Text("Hello"), Text("Hello"))
	assert.Equal(t, Text(""), Text(""))
}

func TestText_ChangesWithContent(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Hello", "Hello!"},
		{"Hello", "hello"},
		{"Hello", "Hello "},
		{"line one\nline two", "line one\r\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.NotEqual(t, Text(tt.a), Text(tt.b))
		})
	}
}

func TestText_Format(t *testing.T) {
	h := Text("Quarterly revenue grew 12%")
	assert.Len(t, h, Length)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), h)
}

func TestBytes_MatchesText(t *testing.T) {
	assert.Equal(t, Text("abc"), Bytes([]byte("abc")))
}

func TestText_KnownVector(t *testing.T) {
	// BLAKE3 of the empty input starts with af1349b9f5f9a1a6.
	assert.Equal(t, "af1349b9f5f9a1a6", Text(""))
}

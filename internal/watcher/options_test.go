package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	assert.True(t, opts.IgnoreHidden, "Should ignore hidden files by default")
	assert.Equal(t, 100*time.Millisecond, opts.SettleDelay)
	assert.Contains(t, opts.IgnorePatterns, "*.tmp")
}

func TestOptions_CustomValues(t *testing.T) {
	opts := Options{
		IgnoreHidden:   false,
		SettleDelay:    200 * time.Millisecond,
		IgnorePatterns: []string{},
	}
	opts.setDefaults()

	assert.False(t, opts.IgnoreHidden, "Explicit patterns keep the caller's hidden setting")
	assert.Equal(t, 200*time.Millisecond, opts.SettleDelay)
	assert.Empty(t, opts.IgnorePatterns)
}

func TestOptions_Wants(t *testing.T) {
	opts := Options{FileName: "outline.yml"}
	opts.setDefaults()

	tests := []struct {
		path string
		want bool
	}{
		{"/data/deck/outline.yml", true},
		{"/home/me/.genslides/deck/outline.yml", true},
		{"/data/deck/.outline.yml.123.tmp", false},
		{"/data/deck/images/abc.jpg", false},
		{"/data/deck/outline.yml~", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.wants(tt.path))
		})
	}
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "added", EventAdded.String())
	assert.Equal(t, "modified", EventModified.String())
	assert.Equal(t, "removed", EventRemoved.String())
	assert.Equal(t, "unknown", EventType(42).String())
}

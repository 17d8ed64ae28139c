package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the file watcher.
type Options struct {
	// FileName restricts events to files with this base name. Empty means all files.
	FileName string

	// MaxDepth limits how many directory levels below a watched root are
	// followed. Zero means only the root itself.
	MaxDepth int

	IgnorePatterns []string
	SettleDelay    time.Duration
	IgnoreHidden   bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 100 * time.Millisecond
	}

	// nil means "not configured"; an explicit empty slice keeps the caller's IgnoreHidden.
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"*.tmp",
			"*.swp",
			"*~",
		}
		o.IgnoreHidden = true
	}
}

// shouldIgnore reports whether a path's base name is excluded. Only the base
// name is checked so a watched root may itself live under a dot directory.
func (o *Options) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if o.IgnoreHidden && strings.HasPrefix(base, ".") && base != "." && base != ".." {
		return true
	}
	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// wants reports whether events for a file path should be emitted.
func (o *Options) wants(path string) bool {
	if o.shouldIgnore(path) {
		return false
	}
	return o.FileName == "" || filepath.Base(path) == o.FileName
}

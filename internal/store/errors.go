package store

import "errors"

// Store errors. Callers match them with errors.Is; the returned errors carry the slug.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
	ErrCorrupt         = errors.New("project document is corrupt")
	ErrVersionConflict = errors.New("project version conflict")
	ErrInvalidSlug     = errors.New("invalid project slug")
)

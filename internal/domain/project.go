package domain

import (
	"slices"
	"time"
)

// DefaultProjectTitle is the title given to implicitly created projects.
const DefaultProjectTitle = "Untitled"

// Project is the root aggregate persisted as one outline.yml per slug.
// Slug is the directory name and is never written into the document.
type Project struct {
	Slug        string    `yaml:"-"`
	Title       string    `yaml:"title"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
	Version     int64     `yaml:"version"` // Bumped by every save; compared for optimistic concurrency
	Slides      []*Slide  `yaml:"slides"`
	Cost        CostInfo  `yaml:"cost"`
	Style       *Style    `yaml:"style"`
	ImageEngine string    `yaml:"image_engine,omitempty"`
}

// NewProject returns an empty project with default title and zero cost.
func NewProject(slug, engine string, now time.Time) *Project {
	return &Project{
		Slug:        slug,
		Title:       DefaultProjectTitle,
		CreatedAt:   now,
		UpdatedAt:   now,
		Slides:      []*Slide{},
		ImageEngine: engine,
	}
}

// Touch bumps UpdatedAt, never moving it before CreatedAt.
func (p *Project) Touch(now time.Time) {
	if now.Before(p.CreatedAt) {
		now = p.CreatedAt
	}
	p.UpdatedAt = now
}

// Slide returns the slide with sid and its index, or nil and -1.
func (p *Project) Slide(sid string) (*Slide, int) {
	for i, s := range p.Slides {
		if s.SID == sid {
			return s, i
		}
	}
	return nil, -1
}

// InsertSlide adds s after the slide afterSID, or appends when afterSID is empty.
// Returns false without modifying the project if afterSID is not found.
func (p *Project) InsertSlide(s *Slide, afterSID string) bool {
	if afterSID == "" {
		p.Slides = append(p.Slides, s)
		return true
	}
	_, idx := p.Slide(afterSID)
	if idx < 0 {
		return false
	}
	p.Slides = slices.Insert(p.Slides, idx+1, s)
	return true
}

// RemoveSlide deletes the slide with sid. Returns false if absent.
func (p *Project) RemoveSlide(sid string) bool {
	_, idx := p.Slide(sid)
	if idx < 0 {
		return false
	}
	p.Slides = slices.Delete(p.Slides, idx, idx+1)
	return true
}

// ReorderError describes why a requested slide order was rejected.
type ReorderError struct {
	UnknownSID string // set when the order names a slide that does not exist
	Missing    int    // number of existing slides absent from the order
	Duplicate  string // set when the order repeats a slide
}

func (e *ReorderError) Error() string {
	switch {
	case e.UnknownSID != "":
		return "unknown slide " + e.UnknownSID
	case e.Duplicate != "":
		return "duplicate slide " + e.Duplicate
	default:
		return "order must list every slide exactly once"
	}
}

// Reorder applies order as a permutation of the existing slides.
// The project is left unchanged when an error is returned.
func (p *Project) Reorder(order []string) error {
	index := make(map[string]*Slide, len(p.Slides))
	for _, s := range p.Slides {
		index[s.SID] = s
	}

	seen := make(map[string]bool, len(order))
	next := make([]*Slide, 0, len(order))
	for _, sid := range order {
		s, ok := index[sid]
		if !ok {
			return &ReorderError{UnknownSID: sid}
		}
		if seen[sid] {
			return &ReorderError{Duplicate: sid}
		}
		seen[sid] = true
		next = append(next, s)
	}
	if len(next) != len(p.Slides) {
		return &ReorderError{Missing: len(p.Slides) - len(next)}
	}

	p.Slides = next
	return nil
}

// SlideIDs returns slide ids in order.
func (p *Project) SlideIDs() []string {
	ids := make([]string, len(p.Slides))
	for i, s := range p.Slides {
		ids[i] = s.SID
	}
	return ids
}

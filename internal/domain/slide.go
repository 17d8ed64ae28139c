package domain

import "time"

// MaxSlideContentLength bounds slide text in characters.
const MaxSlideContentLength = 20000

// Slide is one page of a project. SID is assigned once and never changes.
type Slide struct {
	SID       string        `yaml:"sid"`
	Content   string        `yaml:"content"`
	CreatedAt time.Time     `yaml:"created_at"`
	UpdatedAt time.Time     `yaml:"updated_at"`
	Images    []*SlideImage `yaml:"images"`
}

// SlideImage records one generated image. Hash is the content fingerprint at generation
// time, not a digest of the image bytes.
type SlideImage struct {
	Hash      string    `yaml:"hash"`
	Path      string    `yaml:"path"`
	CreatedAt time.Time `yaml:"created_at"`
	BlurHash  string    `yaml:"blurhash,omitempty"`
}

// NewSlide returns a slide with no images.
func NewSlide(sid, content string, now time.Time) *Slide {
	return &Slide{
		SID:       sid,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Images:    []*SlideImage{},
	}
}

// SetContent replaces the text and bumps UpdatedAt.
func (s *Slide) SetContent(content string, now time.Time) {
	s.Content = content
	s.UpdatedAt = now
}

// Image returns the newest image recorded under hash, or nil.
func (s *Slide) Image(hash string) *SlideImage {
	for i := len(s.Images) - 1; i >= 0; i-- {
		if s.Images[i].Hash == hash {
			return s.Images[i]
		}
	}
	return nil
}

// Latest returns the last image in history regardless of hash, or nil.
func (s *Slide) Latest() *SlideImage {
	if len(s.Images) == 0 {
		return nil
	}
	return s.Images[len(s.Images)-1]
}

// AddImage appends img unless an image with the same hash is already recorded.
// Returns the record that is now in the list and whether it was appended.
func (s *Slide) AddImage(img *SlideImage) (*SlideImage, bool) {
	if existing := s.Image(img.Hash); existing != nil {
		return existing, false
	}
	s.Images = append(s.Images, img)
	return img, true
}

// RemoveImage drops every record with hash. Returns false if none matched.
func (s *Slide) RemoveImage(hash string) bool {
	kept := s.Images[:0]
	for _, img := range s.Images {
		if img.Hash != hash {
			kept = append(kept, img)
		}
	}
	removed := len(kept) != len(s.Images)
	// Clear the tail so dropped records are collectable.
	for i := len(kept); i < len(s.Images); i++ {
		s.Images[i] = nil
	}
	s.Images = kept
	return removed
}

// CurrentImage returns the newest image matching contentHash. When the content has
// changed since the last generation it falls back to Latest so clients still have
// something to show; callers compare hashes to flag staleness.
func (s *Slide) CurrentImage(contentHash string) *SlideImage {
	if img := s.Image(contentHash); img != nil {
		return img
	}
	return s.Latest()
}

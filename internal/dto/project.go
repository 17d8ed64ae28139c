// Package dto provides the client-facing views of projects, slides and styles.
//
// Views carry public URLs and derived fields (content hash, matched flags,
// cost breakdown) so clients can render them without further lookups. They are
// shared by the HTTP responses and notification payloads.
package dto

import (
	"time"

	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/hash"
)

// Image is a generated slide image.
type Image struct {
	Hash         string    `json:"hash"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	BlurHash     string    `json:"blurhash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Matched      bool      `json:"matched" doc:"Whether the image was generated from the slide's present content"`
}

// Slide is a slide with its image history.
type Slide struct {
	SID          string    `json:"sid"`
	Content      string    `json:"content"`
	ContentHash  string    `json:"content_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CurrentImage *Image    `json:"current_image"`
	Images       []Image   `json:"images"`
}

// Style is the project's chosen visual style.
type Style struct {
	Prompt    string    `json:"prompt"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	StyleType string    `json:"style_type,omitempty"`
	StyleName string    `json:"style_name,omitempty"`
}

// Cost is the generation ledger with its per-kind breakdown.
type Cost struct {
	TotalImages      int                  `json:"total_images"`
	StyleGenerations int                  `json:"style_generations"`
	SlideGenerations int                  `json:"slide_generations"`
	EstimatedCost    float64              `json:"estimated_cost"`
	Currency         string               `json:"currency"`
	Breakdown        domain.CostBreakdown `json:"breakdown"`
}

// Project is the full project view.
type Project struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
	ImageEngine string    `json:"image_engine"`
	Style       *Style    `json:"style"`
	Slides      []Slide   `json:"slides"`
	Cost        Cost      `json:"cost"`
}

// ProjectSummary is one row of the project list.
type ProjectSummary struct {
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	SlideCount int       `json:"slide_count"`
	HasStyle   bool      `json:"has_style"`
}

// SlideImages is the image history of one slide measured against its present content.
type SlideImages struct {
	SID             string  `json:"sid"`
	ContentHash     string  `json:"content_hash"`
	Images          []Image `json:"images"`
	HasMatchedImage bool    `json:"has_matched_image"`
}

// URLBuilder derives public URLs from identifiers.
type URLBuilder interface {
	ImageURL(slug, sid, hash string) string
	ThumbnailURL(slug, sid, hash string) string
	ThumbnailExists(slug, sid, hash string) bool
	StyleURL(slug string) string
}

// Presenter converts domain values to views.
type Presenter struct {
	urls    URLBuilder
	pricing domain.Pricing
}

// NewPresenter creates a presenter.
func NewPresenter(urls URLBuilder, pricing domain.Pricing) *Presenter {
	return &Presenter{urls: urls, pricing: pricing}
}

// Image builds the view of img. matched reports whether img was generated
// from the slide's present content.
func (p *Presenter) Image(slug, sid string, img *domain.SlideImage, matched bool) Image {
	url := img.Path
	if url == "" {
		url = p.urls.ImageURL(slug, sid, img.Hash)
	}
	// Thumbnails are best effort; without one clients get the full image.
	thumb := url
	if p.urls.ThumbnailExists(slug, sid, img.Hash) {
		thumb = p.urls.ThumbnailURL(slug, sid, img.Hash)
	}
	return Image{
		Hash:         img.Hash,
		URL:          url,
		ThumbnailURL: thumb,
		BlurHash:     img.BlurHash,
		CreatedAt:    img.CreatedAt,
		Matched:      matched,
	}
}

// SlideImages builds the image history of s.
func (p *Presenter) SlideImages(slug string, s *domain.Slide) SlideImages {
	contentHash := hash.Text(s.Content)
	out := SlideImages{
		SID:         s.SID,
		ContentHash: contentHash,
		Images:      make([]Image, 0, len(s.Images)),
	}
	for _, img := range s.Images {
		matched := img.Hash == contentHash
		out.HasMatchedImage = out.HasMatchedImage || matched
		out.Images = append(out.Images, p.Image(slug, s.SID, img, matched))
	}
	return out
}

// Slide builds the view of s.
func (p *Presenter) Slide(slug string, s *domain.Slide) Slide {
	history := p.SlideImages(slug, s)
	view := Slide{
		SID:         s.SID,
		Content:     s.Content,
		ContentHash: history.ContentHash,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Images:      history.Images,
	}
	if cur := s.CurrentImage(history.ContentHash); cur != nil {
		img := p.Image(slug, s.SID, cur, cur.Hash == history.ContentHash)
		view.CurrentImage = &img
	}
	return view
}

// Slides builds views of slides in order.
func (p *Presenter) Slides(slug string, slides []*domain.Slide) []Slide {
	out := make([]Slide, 0, len(slides))
	for _, s := range slides {
		out = append(out, p.Slide(slug, s))
	}
	return out
}

// Style builds the view of st, or nil.
func (p *Presenter) Style(slug string, st *domain.Style) *Style {
	if st == nil {
		return nil
	}
	image := st.Image
	if image == "" {
		image = p.urls.StyleURL(slug)
	}
	return &Style{
		Prompt:    st.Prompt,
		Image:     image,
		CreatedAt: st.CreatedAt,
		StyleType: string(st.StyleType),
		StyleName: st.StyleName,
	}
}

// Cost builds the ledger view, recomputing the estimate from counters.
func (p *Presenter) Cost(c domain.CostInfo) Cost {
	return Cost{
		TotalImages:      c.TotalImages,
		StyleGenerations: c.StyleGenerations,
		SlideGenerations: c.SlideGenerations,
		EstimatedCost:    p.pricing.Estimate(c),
		Currency:         domain.Currency,
		Breakdown:        p.pricing.Breakdown(c),
	}
}

// Project builds the full view of pr.
func (p *Presenter) Project(pr *domain.Project) Project {
	return Project{
		Slug:        pr.Slug,
		Title:       pr.Title,
		CreatedAt:   pr.CreatedAt,
		UpdatedAt:   pr.UpdatedAt,
		Version:     pr.Version,
		ImageEngine: pr.ImageEngine,
		Style:       p.Style(pr.Slug, pr.Style),
		Slides:      p.Slides(pr.Slug, pr.Slides),
		Cost:        p.Cost(pr.Cost),
	}
}

// Summary builds the list row of pr.
func (p *Presenter) Summary(pr *domain.Project) ProjectSummary {
	return ProjectSummary{
		Slug:       pr.Slug,
		Title:      pr.Title,
		CreatedAt:  pr.CreatedAt,
		UpdatedAt:  pr.UpdatedAt,
		SlideCount: len(pr.Slides),
		HasStyle:   pr.Style != nil,
	}
}

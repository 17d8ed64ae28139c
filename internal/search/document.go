// Package search provides full-text search over slide content using Bleve.
package search

import (
	"github.com/lehuagavin/genslides/internal/domain"
)

// DocType represents the type of document in the index.
type DocType string

// Document types for the search index.
const (
	DocTypeProject DocType = "project"
	DocTypeSlide   DocType = "slide"
)

// SearchDocument is one indexed entity. Projects are indexed by title, slides
// by content; both carry the project title so a slide hit can be labelled.
type SearchDocument struct {
	ID        string  `json:"id"`
	Type      DocType `json:"type"`
	Slug      string  `json:"slug"`
	SID       string  `json:"sid,omitempty"`
	Position  int     `json:"position"`
	Title     string  `json:"title"`
	Content   string  `json:"content,omitempty"`
	UpdatedAt int64   `json:"updated_at"`
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *SearchDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"type":       string(d.Type),
		"slug":       d.Slug,
		"position":   float64(d.Position),
		"title":      d.Title,
		"updated_at": float64(d.UpdatedAt),
	}
	if d.SID != "" {
		m["sid"] = d.SID
	}
	if d.Content != "" {
		m["content"] = d.Content
	}
	return m
}

func projectDocID(slug string) string { return "project:" + slug }

func slideDocID(slug, sid string) string { return "slide:" + slug + "/" + sid }

// DocumentsFromProject returns the project document followed by one document per slide.
func DocumentsFromProject(p *domain.Project) []*SearchDocument {
	docs := make([]*SearchDocument, 0, len(p.Slides)+1)
	docs = append(docs, &SearchDocument{
		ID:        projectDocID(p.Slug),
		Type:      DocTypeProject,
		Slug:      p.Slug,
		Title:     p.Title,
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	})
	for i, s := range p.Slides {
		docs = append(docs, &SearchDocument{
			ID:        slideDocID(p.Slug, s.SID),
			Type:      DocTypeSlide,
			Slug:      p.Slug,
			SID:       s.SID,
			Position:  i + 1,
			Title:     p.Title,
			Content:   s.Content,
			UpdatedAt: s.UpdatedAt.UnixMilli(),
		})
	}
	return docs
}

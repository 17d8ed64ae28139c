package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Pagination bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string
	Slug  string    // Restrict to one project (empty = all)
	Types []DocType // Document types to include (empty = all)

	Limit  int
	Offset int
}

// SearchResult holds one page of hits.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single matching project or slide.
type SearchHit struct {
	Type     DocType `json:"type"`
	Slug     string  `json:"slug"`
	SID      string  `json:"sid,omitempty"`
	Position int     `json:"position,omitempty"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet,omitempty"`
}

func (p *SearchParams) normalize() {
	p.Query = strings.TrimSpace(p.Query)
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	p.Limit = min(p.Limit, MaxLimit)
	p.Offset = max(p.Offset, 0)
}

// Search executes a query, best match first.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params.normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "slug", "position"})
	req.Fields = []string{"type", "slug", "sid", "position", "title"}
	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("content")
		req.Highlight.AddField("title")
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		h := SearchHit{Score: hit.Score}
		if v, ok := hit.Fields["type"].(string); ok {
			h.Type = DocType(v)
		}
		if v, ok := hit.Fields["slug"].(string); ok {
			h.Slug = v
		}
		if v, ok := hit.Fields["sid"].(string); ok {
			h.SID = v
		}
		if v, ok := hit.Fields["position"].(float64); ok {
			h.Position = int(v)
		}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if frags := hit.Fragments["content"]; len(frags) > 0 {
			h.Snippet = frags[0]
		} else if frags := hit.Fragments["title"]; len(frags) > 0 {
			h.Snippet = frags[0]
		}
		result.Hits = append(result.Hits, h)
	}
	return result, nil
}

// buildSearchQuery matches slide content and project titles, with fuzzy and
// prefix fallbacks for typos and partial words.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if params.Query != "" {
		contentMatch := bleve.NewMatchQuery(params.Query)
		contentMatch.SetField("content")
		contentMatch.SetBoost(2.0)

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(1.5)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("content")
		fuzzy.SetBoost(0.8)

		text := []query.Query{contentMatch, titleMatch, fuzzy}
		if len(params.Query) >= 2 && !strings.ContainsAny(params.Query, " \t") {
			prefix := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefix.SetField("content")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.Slug != "" {
		sq := bleve.NewTermQuery(params.Slug)
		sq.SetField("slug")
		queries = append(queries, sq)
	}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

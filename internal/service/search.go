package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainerrors "github.com/lehuagavin/genslides/internal/errors"
	"github.com/lehuagavin/genslides/internal/search"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/lehuagavin/genslides/internal/validation"
)

// SearchService provides full-text search over project titles and slide content.
// It bridges the search index with the project store; the index is kept current
// through the store's observer hook.
type SearchService struct {
	index  *search.SearchIndex
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, st *store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  st,
		logger: logger,
	}
}

// Search runs a query. An optional slug restricts hits to one project.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" {
		return nil, domainerrors.InvalidRequest("Search query must not be empty")
	}
	if params.Slug != "" {
		if err := validation.Identifier("slug", params.Slug); err != nil {
			return nil, err
		}
	}
	return s.index.Search(ctx, params)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the index from every project on disk.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	projects, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if err := s.index.Rebuild(projects); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	count, _ := s.index.DocumentCount()
	s.logger.Info("reindex complete", "projects", len(projects), "documents", count)
	return nil
}

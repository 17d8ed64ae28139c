package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lehuagavin/genslides/internal/api/dto"
	"github.com/lehuagavin/genslides/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/search",
		Summary:     "Search slides",
		Description: "Full-text search across project titles and slide content",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/search/reindex",
		Summary:     "Rebuild search index",
		Description: "Re-indexes every project on disk",
		Tags:        []string{"Search"},
	}, s.handleReindex)
}

func (s *Server) handleSearch(ctx context.Context, input *dto.SearchInput) (*dto.SearchOutput, error) {
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("search is not available")
	}

	s.logger.Debug("search request",
		"query", input.Query,
		"slug", input.Slug,
		"types", input.Types,
		"limit", input.Limit,
	)

	params := search.SearchParams{
		Query:  input.Query,
		Slug:   input.Slug,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if input.Types != "" {
		for t := range strings.SplitSeq(input.Types, ",") {
			switch search.DocType(strings.TrimSpace(t)) {
			case search.DocTypeProject:
				params.Types = append(params.Types, search.DocTypeProject)
			case search.DocTypeSlide:
				params.Types = append(params.Types, search.DocTypeSlide)
			}
		}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, s.handleError(err, "search", "query", input.Query)
	}
	return &dto.SearchOutput{Body: result}, nil
}

func (s *Server) handleReindex(ctx context.Context, _ *struct{}) (*dto.SuccessOutput, error) {
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("search is not available")
	}
	if err := s.services.Search.ReindexAll(ctx); err != nil {
		return nil, s.handleError(err, "reindex")
	}
	return &dto.SuccessOutput{Body: dto.SuccessResponse{Success: true}}, nil
}

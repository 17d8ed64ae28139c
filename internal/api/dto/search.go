package dto

import "github.com/lehuagavin/genslides/internal/search"

// SearchInput contains parameters for searching projects and slides.
type SearchInput struct {
	Query  string `query:"q" minLength:"1" maxLength:"200" doc:"Search query"`
	Slug   string `query:"slug" maxLength:"64" doc:"Restrict to one project"`
	Types  string `query:"types" maxLength:"50" doc:"Comma-separated document types (project,slide). Omit for all."`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Max hits (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// SearchOutput wraps the search result.
type SearchOutput struct {
	Body *search.SearchResult
}

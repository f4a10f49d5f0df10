package api

import (
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/service"
)

// Summary is the scan summary (aliased from the domain layer).
type Summary = service.Summary

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = service.DocumentDetail

// FixResponse is returned by POST /fix.
type FixResponse = service.FixOutcome

// IssuesResponse wraps the issue list.
type IssuesResponse struct {
	Issues []issue.Message `json:"issues" validate:"required"`
	Total  int             `json:"total" example:"3" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// BacklinksResponse lists the documents linking to a path.
type BacklinksResponse struct {
	Path      string   `json:"path" example:"notes/hello.md" validate:"required"`
	Backlinks []string `json:"backlinks" validate:"required"`
}

// Package search retrieves candidate sources from web search providers.
package search

import (
	"context"
	"errors"
)

// Sentinel errors for search operations.
var (
	// ErrEmptyQuery is returned when the query is blank.
	ErrEmptyQuery = errors.New("query is required")

	// ErrMissingAPIKey indicates the provider has no credential.
	ErrMissingAPIKey = errors.New("search API key is required")
)

// Result is one retrieved source. Query names the search query that
// produced it, filled in by Multi.
type Result struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Query string `json:"query,omitempty"`
}

// Provider runs a single web search.
type Provider interface {
	Search(ctx context.Context, query string, n int) ([]Result, error)
}

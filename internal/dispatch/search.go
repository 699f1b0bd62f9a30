package dispatch

import (
	"context"

	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/txn"
)

// SearchProvider is the minimal contract a search collaborator
// implements. Ranking, coverage, and indexing strategy are entirely the
// provider's business; the core passes the query through and returns
// the matches verbatim.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]Match, error)
}

// Match is one search hit.
type Match struct {
	Kind  model.Kind `json:"kind"`
	ID    string     `json:"id"`
	Score float64    `json:"score"`

	// Snippet is provider-defined display text, possibly empty.
	Snippet string `json:"snippet,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type searchResult struct {
	Matches []Match `json:"matches"`
	Count   int     `json:"count"`
}

func handleSearch(ctx context.Context, d *Dispatcher, _ *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[searchRequest](p)
	if err != nil {
		return nil, err
	}

	matches, err := d.search.Search(ctx, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []Match{}
	}
	return searchResult{Matches: matches, Count: len(matches)}, nil
}

package scraper

import (
	"context"
	"net/http"

	"github.com/mapgrid/placescout/internal/models"
)

// Fetcher is the boundary to a place search provider. Fetch issues one query
// for the given target and returns the raw results of that single viewport.
// An empty result set is a nil slice with a nil error; an error always means
// the query itself failed and may be retried.
type Fetcher interface {
	Fetch(ctx context.Context, target models.SearchTarget) ([]RawPlace, error)
}

// RawPlace is one undecoded place result. Identity is cheap to derive and
// never requires the full field extraction that Place performs, so callers
// can deduplicate before deciding whether a result is worth parsing.
type RawPlace interface {
	Identity() string
	Place() models.Place
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

package scraper

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// FetcherType represents the type of place search fetcher.
type FetcherType string

const (
	// FetcherTypeWeb scrapes the map search endpoint the web interface uses (no API key).
	FetcherTypeWeb FetcherType = "web"
	// FetcherTypePlacesAPI uses the official Places Text Search API (requires API key).
	FetcherTypePlacesAPI FetcherType = "places-api"
)

// ErrAPIKeyRequired is returned when a fetcher type needs an API key and none was given.
var ErrAPIKeyRequired = errors.New("API key is required for the places-api fetcher")

// FetcherConfig holds configuration for creating a place search fetcher.
type FetcherConfig struct {
	Type      FetcherType  // Type of fetcher to create
	APIKey    string       // API key (used by the places-api fetcher)
	RateLimit int          // Rate limit in requests per second (0 means default)
	Logger    *slog.Logger // Logger for the fetcher
}

// NewFetcher creates a place search fetcher based on the provided configuration.
// It decouples fetcher instantiation from the search logic, so the orchestrator
// only ever sees the Fetcher interface.
func NewFetcher(config FetcherConfig) (Fetcher, error) {
	switch config.Type {
	case FetcherTypeWeb:
		return NewWebFetcher(config.RateLimit, config.Logger), nil
	case FetcherTypePlacesAPI:
		return newPlacesAPIFetcher(config)
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %s", config.Type)
	}
}

func newPlacesAPIFetcher(config FetcherConfig) (Fetcher, error) {
	if config.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Places API client: %w", err)
	}

	return NewPlacesAPIFetcher(client, config.Logger), nil
}

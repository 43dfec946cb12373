package scraper_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapgrid/placescout/internal/scraper"
)

func TestNewFetcher(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	testCases := []struct {
		name        string
		config      scraper.FetcherConfig
		expectedErr error
		wantType    any
	}{
		{
			name: "should create web fetcher without an API key",
			config: scraper.FetcherConfig{
				Type:   scraper.FetcherTypeWeb,
				Logger: logger,
			},
			wantType: &scraper.WebFetcher{},
		},
		{
			name: "should create places-api fetcher with an API key",
			config: scraper.FetcherConfig{
				Type:      scraper.FetcherTypePlacesAPI,
				APIKey:    "AIza-test-key",
				RateLimit: 5,
				Logger:    logger,
			},
			wantType: &scraper.PlacesAPIFetcher{},
		},
		{
			name: "should fail for places-api without an API key",
			config: scraper.FetcherConfig{
				Type:   scraper.FetcherTypePlacesAPI,
				Logger: logger,
			},
			expectedErr: scraper.ErrAPIKeyRequired,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fetcher, err := scraper.NewFetcher(tc.config)

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, fetcher)
				return
			}

			require.NoError(t, err)
			assert.IsType(t, tc.wantType, fetcher)
		})
	}

	t.Run("should fail for an unsupported fetcher type", func(t *testing.T) {
		t.Parallel()

		fetcher, err := scraper.NewFetcher(scraper.FetcherConfig{Type: "carrier-pigeon", Logger: logger})

		require.Error(t, err)
		assert.Nil(t, fetcher)
		assert.Contains(t, err.Error(), "unsupported fetcher type")
	})
}

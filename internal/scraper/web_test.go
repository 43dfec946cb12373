package scraper_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mapgrid/placescout/internal/models"
	"github.com/mapgrid/placescout/internal/scraper"
)

// mockHTTPClient is a mock implementation of the HTTPClient interface.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func listingResponse(t *testing.T, names ...string) *http.Response {
	t.Helper()

	entries := make([]any, 0, len(names))
	for _, name := range names {
		detail := make([]any, 15)
		detail[11] = name
		detail[2] = []any{"Test Street"}

		entry := make([]any, 15)
		entry[14] = detail
		entries = append(entries, entry)
	}

	raw, err := json.Marshal([]any{[]any{nil, entries}})
	require.NoError(t, err)

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(append([]byte(")]}'\n"), raw...))),
	}
}

func testTarget() models.SearchTarget {
	return models.SearchTarget{
		Point: models.GeoPoint{Latitude: 30.1157236, Longitude: 31.1454645},
		Zoom:  15,
		Query: "restaurants",
		GL:    "eg",
	}
}

func TestWebFetcher_Fetch(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	noLimit := rate.NewLimiter(rate.Inf, 1)

	t.Run("should return places on a valid listing", func(t *testing.T) {
		t.Parallel()

		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return listingResponse(t, "Cairo Kitchen", "Zooba"), nil
		}}
		fetcher := scraper.NewWebFetcherWithClient(client, noLimit, logger)

		places, err := fetcher.Fetch(context.Background(), testTarget())

		require.NoError(t, err)
		require.Len(t, places, 2)
		assert.Equal(t, "Cairo Kitchen_Test Street", places[0].Identity())
		assert.Equal(t, "Zooba", places[1].Place().Name)
	})

	t.Run("should build the request like a browser map search", func(t *testing.T) {
		t.Parallel()

		var captured *http.Request
		client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
			captured = req
			return listingResponse(t), nil
		}}
		fetcher := scraper.NewWebFetcherWithClient(client, noLimit, logger)

		_, err := fetcher.Fetch(context.Background(), testTarget())
		require.NoError(t, err)
		require.NotNil(t, captured)

		query := captured.URL.Query()
		assert.Equal(t, "map", query.Get("tbm"))
		assert.Equal(t, "restaurants", query.Get("q"))
		assert.Equal(t, "eg", query.Get("gl"))

		pb := query.Get("pb")
		assert.Contains(t, pb, "!2d31.1454645")
		assert.Contains(t, pb, "!3d30.1157236")
		assert.Contains(t, pb, "!4f15")

		assert.NotEmpty(t, captured.Header.Get("User-Agent"))
		assert.NotEmpty(t, captured.Header.Get("Accept-Language"))
	})

	t.Run("should surface the retry delay on throttling", func(t *testing.T) {
		t.Parallel()

		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			resp := &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Header:     http.Header{"Retry-After": []string{"77"}},
				Body:       io.NopCloser(bytes.NewReader(nil)),
			}
			return resp, nil
		}}
		fetcher := scraper.NewWebFetcherWithClient(client, noLimit, logger)

		_, err := fetcher.Fetch(context.Background(), testTarget())

		var rateErr *scraper.RateLimitedError
		require.ErrorAs(t, err, &rateErr)
		assert.Equal(t, 77*time.Second, rateErr.RetryAfter)
	})

	t.Run("should return an error on a non-200 status", func(t *testing.T) {
		t.Parallel()

		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			resp := &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(bytes.NewReader([]byte("upstream exploded"))),
			}
			return resp, nil
		}}
		fetcher := scraper.NewWebFetcherWithClient(client, noLimit, logger)

		_, err := fetcher.Fetch(context.Background(), testTarget())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("should wrap transport failures", func(t *testing.T) {
		t.Parallel()

		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		}}
		fetcher := scraper.NewWebFetcherWithClient(client, noLimit, logger)

		_, err := fetcher.Fetch(context.Background(), testTarget())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("should return zero results without error on an empty listing", func(t *testing.T) {
		t.Parallel()

		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return listingResponse(t), nil
		}}
		fetcher := scraper.NewWebFetcherWithClient(client, noLimit, logger)

		places, err := fetcher.Fetch(context.Background(), testTarget())

		require.NoError(t, err)
		assert.Empty(t, places)
	})

	t.Run("should honor context cancellation before the request", func(t *testing.T) {
		t.Parallel()

		client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, req.Context().Err()
		}}
		fetcher := scraper.NewWebFetcherWithClient(client, noLimit, logger)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fetcher.Fetch(ctx, testTarget())
		require.Error(t, err)
	})
}

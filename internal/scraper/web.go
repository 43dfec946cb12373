package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mapgrid/placescout/internal/models"
	"golang.org/x/time/rate"
)

// webBaseURL is the map search endpoint the web interface itself queries.
const webBaseURL = "https://www.google.com/search"

// pbStaticTail is the fixed remainder of the pb parameter after the
// viewport-dependent prefix. Captured from the web interface's own requests.
const pbStaticTail = "!7i20!10b1!12m15!1m2!18b1!30b1!17m4!1e1!1e0!3e1!3e0" +
	"!20m5!1e0!2e3!3b0!5e2!6b1!26b1!19m4!2m3!1i320!2i120!4i8!20m32!3m1!2i9" +
	"!6m3!1m2!1i360!2i256!7m24!1m3!1e1!2b0!3e3!1m3!1e2!2b1!3e2!1m3!1e2!2b0!3e3" +
	"!1m3!1e8!2b0!3e3!1m3!1e10!2b0!3e3!1m3!1e10!2b1!3e2!9b0"

// browserHeaders mimic the web interface; without them the endpoint serves
// the plain search page instead of the listing payload.
var browserHeaders = map[string]string{
	"accept":                       "*/*",
	"accept-language":              "en-US,en;q=0.9",
	"device-memory":                "8",
	"downlink":                     "10",
	"priority":                     "u=1, i",
	"referer":                      "https://www.google.com/",
	"rtt":                          "150",
	"sec-ch-ua":                    `"Not;A=Brand";v="99", "Google Chrome";v="139", "Chromium";v="139"`,
	"sec-ch-ua-mobile":             "?1",
	"sec-ch-ua-platform":           `"Android"`,
	"sec-fetch-dest":               "empty",
	"sec-fetch-mode":               "cors",
	"sec-fetch-site":               "same-origin",
	"user-agent":                   "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Mobile Safari/537.36",
	"x-browser-channel":            "stable",
	"x-browser-year":               "2025",
	"x-maps-diversion-context-bin": "CAI=",
}

// RateLimitedError reports that the endpoint answered 429. RetryAfter carries
// the server-requested pause, zero when the header was absent.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by server (retry after %s)", e.RetryAfter)
}

// WebFetcher implements Fetcher against the scraped web endpoint.
type WebFetcher struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL of the search endpoint
	limiter *rate.Limiter // Request-rate safety floor
	log     *slog.Logger  // Logger for logging operations
}

// NewWebFetcher creates a fetcher for the scraped web endpoint. rps caps the
// outbound request rate as a safety floor below the orchestrator's randomized
// delays; zero or negative means 1 request per second.
func NewWebFetcher(rps int, log *slog.Logger) *WebFetcher {
	const timeout = 30
	if rps <= 0 {
		rps = 1
	}

	return &WebFetcher{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: webBaseURL,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}
}

// NewWebFetcherWithClient allows injecting a custom HTTP client and limiter.
// Useful for testing with mocked HTTP clients.
func NewWebFetcherWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *WebFetcher {
	return &WebFetcher{
		client:  client,
		baseURL: webBaseURL,
		limiter: limiter,
		log:     log,
	}
}

// Fetch issues one listing query for the target viewport and returns its raw
// place results. Zero results is a nil slice with a nil error.
func (wf *WebFetcher) Fetch(ctx context.Context, target models.SearchTarget) ([]RawPlace, error) {
	if err := wf.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL := wf.buildSearchURL(target)
	wf.log.DebugContext(ctx, "Fetching place listing", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}

	resp, err := wf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return nil, &RateLimitedError{RetryAfter: time.Duration(retryAfter) * time.Second}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	places, err := extractPlaces(body)
	if err != nil {
		return nil, err
	}

	wf.log.DebugContext(ctx, "Fetched place listing",
		"zoom", target.Zoom, "lat", target.Point.Latitude, "lng", target.Point.Longitude,
		"results", len(places))

	return places, nil
}

// buildSearchURL assembles the listing request for one viewport. The pb
// parameter packs the viewport into the endpoint's protobuf-like text format;
// only the leading distance/center/zoom fields vary per query.
func (wf *WebFetcher) buildSearchURL(target models.SearchTarget) string {
	zoomDistance := 156543.03392 * 2 / math.Exp2(float64(target.Zoom))

	pb := "!4m8!1m3" +
		"!1d" + strconv.FormatFloat(zoomDistance, 'f', -1, 64) +
		"!2d" + strconv.FormatFloat(target.Point.Longitude, 'f', -1, 64) +
		"!3d" + strconv.FormatFloat(target.Point.Latitude, 'f', -1, 64) +
		"!3m2!1i415!2i608" +
		"!4f" + strconv.Itoa(target.Zoom) +
		pbStaticTail

	params := url.Values{}
	params.Set("gl", target.GL)
	params.Set("tbm", "map")
	params.Set("q", target.Query)
	params.Set("pb", pb)

	return wf.baseURL + "?" + params.Encode()
}

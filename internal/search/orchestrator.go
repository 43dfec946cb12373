package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mapgrid/placescout/internal/metrics"
	"github.com/mapgrid/placescout/internal/models"
	"github.com/mapgrid/placescout/internal/scraper"
	"github.com/mapgrid/placescout/internal/tiling"
)

// singleQueryThreshold is the fixed target count at or below which a single
// query suffices: one viewport returns up to 20 listings.
const singleQueryThreshold = 20

// maxZoomSkip bounds how many finer zoom levels are skipped after a level
// contributes no new unique places.
const maxZoomSkip = 5

// ErrAllQueriesFailed reports that every planned query failed, as opposed to
// queries succeeding with zero results.
var ErrAllQueriesFailed = errors.New("all planned queries failed")

// Pacer suspends the orchestrator between outbound queries. Satisfied by
// *ratelimit.Limiter.
type Pacer interface {
	Wait(ctx context.Context)
	OnFailure(ctx context.Context, attempt int)
	Pause(ctx context.Context, d time.Duration)
}

// Orchestrator drives one search run: it chooses the strategy, walks zoom
// levels and tiles, paces queries through the rate limiter and merges results
// into the session. Queries run strictly one at a time.
type Orchestrator struct {
	log         *slog.Logger       // Logger for logging run progress
	fetcher     scraper.Fetcher    // Fetcher boundary to the search provider
	fetcherName string             // Name of the fetcher for metrics labeling
	limiter     Pacer              // Limiter pacing outbound queries
	tiles       *tiling.Generator  // Generator producing per-zoom tile plans
	metrics     *metrics.Metrics   // Metrics for tracking run performance
	maxAttempts int                // Attempts per tile before it is skipped
}

// NewOrchestrator creates a search orchestrator. maxAttempts below 1 is
// raised to the default of 3.
func NewOrchestrator(
	log *slog.Logger,
	fetcher scraper.Fetcher,
	fetcherName string,
	limiter Pacer,
	tiles *tiling.Generator,
	metrics *metrics.Metrics,
	maxAttempts int,
) *Orchestrator {
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	return &Orchestrator{
		log:         log,
		fetcher:     fetcher,
		fetcherName: fetcherName,
		limiter:     limiter,
		tiles:       tiles,
		metrics:     metrics,
		maxAttempts: maxAttempts,
	}
}

// Run executes one search session to completion. It returns the session with
// its collected results; the error is non-nil only for invalid parameters or
// when every planned query failed. Cancelling the context stops the run at
// the next safe point and the partial session remains valid.
func (o *Orchestrator) Run(ctx context.Context, params Params) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	session := NewSession(params)
	o.metrics.PlacesCollected.Set(0)

	issued, failed := 0, 0
	if params.TargetCount <= singleQueryThreshold {
		session.Strategy = StrategySingleQuery
		issued, failed = o.runSingleQuery(ctx, session)
	} else {
		session.Strategy = StrategyMultiZoom
		issued, failed = o.runMultiZoom(ctx, session)
	}

	if issued > 0 && failed == issued {
		return session, ErrAllQueriesFailed
	}

	session.Truncate()
	o.log.InfoContext(ctx, "Search run finished",
		"run", session.ID, "strategy", session.Strategy,
		"queries", issued, "failed", failed, "results", len(session.Results))

	return session, nil
}

// runSingleQuery issues exactly one query at the requested viewport.
func (o *Orchestrator) runSingleQuery(ctx context.Context, session *Session) (issued, failed int) {
	target := models.SearchTarget{
		Point: session.Params.Center,
		Zoom:  session.Params.MinZoom,
		Query: session.Params.Query,
		GL:    session.Params.GL,
	}

	results, err := o.fetchWithRetry(ctx, target)
	if err != nil {
		o.log.ErrorContext(ctx, "Search query failed", "run", session.ID, "error", err)
		return 1, 1
	}

	o.mergeResults(session, results)

	return 1, 0
}

// runMultiZoom sweeps the planned zoom levels, nearest tiles first, until the
// target count is reached or the plan is exhausted. A failed tile is skipped
// after retries; a zoom level that adds nothing causes finer levels to be
// skipped, since the area is already saturated at that scale.
func (o *Orchestrator) runMultiZoom(ctx context.Context, session *Session) (issued, failed int) {
	params := session.Params

	zooms := params.ZoomLevels
	if len(zooms) == 0 {
		zooms = tiling.PlanZooms(params.RadiusKM, params.MinZoom)
	}
	o.log.InfoContext(ctx, "Starting multi-zoom tile search",
		"run", session.ID, "zoom_levels", zooms, "radius_km", params.RadiusKM, "target", params.TargetCount)

	for idx := 0; idx < len(zooms); {
		zoom := zooms[idx]
		uniqueBefore := len(session.Results)

		tiles := o.tiles.Generate(params.Center, params.RadiusKM, zoom)
		o.log.InfoContext(ctx, "Searching zoom level",
			"run", session.ID, "zoom", zoom, "tiles", len(tiles), "collected", len(session.Results))

		for _, tile := range tiles {
			if ctx.Err() != nil {
				o.log.InfoContext(ctx, "Search run cancelled", "run", session.ID)
				return issued, failed
			}

			target := models.SearchTarget{
				Point: tiling.TileCenter(tile),
				Zoom:  zoom,
				Query: params.Query,
				GL:    params.GL,
			}

			issued++
			results, err := o.fetchWithRetry(ctx, target)
			if err != nil {
				failed++
				o.log.WarnContext(ctx, "Skipping tile after failed retries",
					"run", session.ID, "tile_x", tile.X, "tile_y", tile.Y, "zoom", zoom, "error", err)
				continue
			}

			o.mergeResults(session, results)
			if session.Full() {
				o.log.InfoContext(ctx, "Target count reached",
					"run", session.ID, "zoom", zoom, "collected", len(session.Results))
				return issued, failed
			}
		}

		if len(session.Results) == uniqueBefore {
			skip := min(maxZoomSkip, len(zooms)-idx-1)
			if skip > 0 {
				o.log.InfoContext(ctx, "No new places at zoom level, skipping finer levels",
					"run", session.ID, "zoom", zoom, "skipped", zooms[idx+1:idx+1+skip])
			}
			idx += skip + 1
		} else {
			idx++
		}
	}

	return issued, failed
}

// fetchWithRetry paces and issues one query, retrying transient failures with
// exponential backoff up to the attempt bound. A server-requested pause takes
// precedence over the computed backoff.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, target models.SearchTarget) ([]scraper.RawPlace, error) {
	var lastErr error

	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o.limiter.Wait(ctx)

		startTime := time.Now()
		results, err := o.fetcher.Fetch(ctx, target)
		o.metrics.RequestSeconds.WithLabelValues(o.fetcherName).Observe(time.Since(startTime).Seconds())

		if err == nil {
			o.metrics.QueriesTotal.WithLabelValues("success").Inc()
			return results, nil
		}

		lastErr = err
		o.metrics.QueriesTotal.WithLabelValues("failure").Inc()
		o.metrics.FetchErrors.Inc()
		o.log.WarnContext(ctx, "Search query failed",
			"attempt", attempt+1, "max_attempts", o.maxAttempts, "error", err)

		if attempt == o.maxAttempts-1 {
			break
		}

		var rateLimited *scraper.RateLimitedError
		if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
			o.limiter.Pause(ctx, rateLimited.RetryAfter)
		} else {
			o.limiter.OnFailure(ctx, attempt)
		}
	}

	return nil, lastErr
}

// mergeResults feeds a fetch batch through the session's identity set in
// discovery order.
func (o *Orchestrator) mergeResults(session *Session, results []scraper.RawPlace) {
	for _, raw := range results {
		if session.Offer(raw) {
			o.metrics.PlacesCollected.Set(float64(len(session.Results)))
		} else {
			o.metrics.DuplicatesSkipped.Inc()
		}
	}
}

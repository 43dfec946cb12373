package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mapgrid/placescout/internal/config"
	"github.com/mapgrid/placescout/internal/metrics"
	"github.com/mapgrid/placescout/internal/models"
	"github.com/mapgrid/placescout/internal/output"
	"github.com/mapgrid/placescout/internal/ratelimit"
	"github.com/mapgrid/placescout/internal/repository"
	"github.com/mapgrid/placescout/internal/scraper"
	"github.com/mapgrid/placescout/internal/search"
	"github.com/mapgrid/placescout/internal/tiling"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows the run to stop between tile queries and still report partial results.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Per-run search parameters come from the command line, deployment
	// settings from the environment.
	lat := flag.Float64("lat", 0, "latitude of the search center")
	lng := flag.Float64("lng", 0, "longitude of the search center")
	zoom := flag.Int("zoom", 14, "base zoom level; finer levels are added automatically for large searches")
	zoomLevels := flag.String("zoom-levels", "", "comma-separated zoom levels overriding automatic selection, e.g. \"14,15,16\"")
	query := flag.String("query", "", "search query, e.g. \"Restaurants\"")
	maxResults := flag.Int("max-results", 20, "maximum number of unique results to collect")
	gl := flag.String("gl", "eg", "provider country code")
	outPath := flag.String("output", "", "output file path (JSON); prints to stdout when empty")
	minDelay := flag.Float64("min-delay", 1.0, "minimum delay between requests in seconds")
	maxDelay := flag.Float64("max-delay", 3.0, "maximum delay between requests in seconds")
	maxRetries := flag.Int("max-retries", 3, "attempts per query before the tile is skipped")
	radius := flag.Float64("search-radius", 10.0, "search radius in kilometers for tile-based searching")
	flag.Parse()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Create the place fetcher using the factory pattern based on configuration.
	// This allows runtime selection between the scraped web endpoint and the official API.
	fetcher, err := scraper.NewFetcher(scraper.FetcherConfig{
		Type:      scraper.FetcherType(cfg.FetcherType),
		APIKey:    cfg.APIKey,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create place fetcher: %v", err)
	}

	logger.InfoContext(ctx, "Place fetcher initialized", "type", cfg.FetcherType)

	// Start the monitoring server for the duration of the run when configured.
	if cfg.MetricsPort > 0 {
		go startMonitoringServer(ctx, logger, reg, cfg.MetricsPort)
	}

	limiter := ratelimit.NewLimiter(
		time.Duration(*minDelay*float64(time.Second)),
		time.Duration(*maxDelay*float64(time.Second)),
		logger,
	)

	orchestrator := search.NewOrchestrator(
		logger,
		fetcher,
		cfg.FetcherType, // Fetcher name for metrics
		limiter,
		tiling.NewGenerator(logger),
		appMetrics,
		*maxRetries,
	)

	params := search.Params{
		Center:      models.GeoPoint{Latitude: *lat, Longitude: *lng},
		Query:       *query,
		TargetCount: *maxResults,
		RadiusKM:    *radius,
		MinZoom:     *zoom,
		GL:          *gl,
		ZoomLevels:  parseZoomLevels(logger, *zoomLevels),
	}

	session, err := orchestrator.Run(ctx, params)
	if err != nil {
		log.Fatalf("Search run failed: %v", err)
	}

	if err = output.Write(output.NewReport(session), *outPath); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	if *outPath != "" {
		logger.InfoContext(ctx, "Results saved", "path", *outPath, "results", len(session.Results))
	}

	// Persist the run when a database sink is configured.
	if cfg.Database.Enabled() {
		saveToDatabase(ctx, logger, cfg, session)
	}
}

// saveToDatabase stores the run summary and its places in the configured
// PostgreSQL sink. Storage failures are logged, not fatal: the report on
// stdout or disk already carries the results.
func saveToDatabase(ctx context.Context, logger *slog.Logger, cfg *config.Config, session *search.Session) {
	dtb, err := repository.NewDatabase(
		ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to DB, skipping persistence", "error", err)
		return
	}
	defer dtb.Close()

	store := repository.NewStore(dtb, logger)

	run := repository.RunRecord{
		ID:           session.ID,
		Query:        session.Params.Query,
		Center:       session.Params.Center,
		RadiusKM:     session.Params.RadiusKM,
		TargetCount:  session.Params.TargetCount,
		ResultsCount: len(session.Results),
		Strategy:     string(session.Strategy),
	}
	if err = store.SaveRun(ctx, run); err != nil {
		logger.ErrorContext(ctx, "Failed to store search run", "error", err)
		return
	}
	if err = store.SavePlaces(ctx, session.ID, session.Results); err != nil {
		logger.ErrorContext(ctx, "Failed to store places", "error", err)
	}
}

// parseZoomLevels parses the --zoom-levels override. An unparsable list falls
// back to automatic selection, matching the lenient CLI contract.
func parseZoomLevels(logger *slog.Logger, raw string) []int {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	levels := make([]int, 0, len(parts))
	for _, part := range parts {
		level, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			logger.Warn("Invalid zoom levels format, using automatic selection", "value", raw)
			return nil
		}
		levels = append(levels, level)
	}

	return levels
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
func startMonitoringServer(ctx context.Context, log *slog.Logger, reg *prometheus.Registry, port int) {
	http.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		if _, err := writer.Write([]byte("OK")); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}
	})
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      http.DefaultServeMux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	QueriesTotal      *prometheus.CounterVec
	FetchErrors       prometheus.Counter
	RequestSeconds    *prometheus.HistogramVec
	PlacesCollected   prometheus.Gauge
	DuplicatesSkipped prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		QueriesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "placescout_queries_total",
			Help: "Total number of issued provider queries.",
		}, []string{"status"}),
		FetchErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "placescout_fetch_errors_total",
			Help: "Total number of errors received from the search provider.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "placescout_request_duration_seconds",
			Help:    "Duration of requests to the search provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"fetcher"}),
		PlacesCollected: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "placescout_places_collected",
			Help: "Number of unique places collected so far in the current run.",
		}),
		DuplicatesSkipped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "placescout_duplicates_skipped_total",
			Help: "Total number of fetched results dropped as duplicates.",
		}),
	}
}

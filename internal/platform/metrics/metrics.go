// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	// MetadataLookups counts Google Books searches by outcome: hit, miss, error.
	MetadataLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_metadata_lookups_total",
			Help: "Metadata provider searches by cache outcome",
		},
		[]string{"outcome"},
	)

	MetadataRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookshelf_metadata_request_duration_seconds",
			Help:    "Duration of upstream Google Books requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookshelf_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	SeedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_seed_items_total",
			Help: "Seed items processed by outcome",
		},
		[]string{"outcome"},
	)

	AuthorConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookshelf_author_create_conflicts_total",
			Help: "Author inserts that lost a uniqueness race and were re-read",
		},
	)
)

// ObserveHTTPRequest records one finished request.
func ObserveHTTPRequest(method string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Package metrics holds the prometheus instruments for the catalog and recommendation paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melody_upstream_requests_total",
			Help: "Calls to the catalog API by operation and outcome",
		},
		[]string{"operation", "outcome"}, // ok, unavailable, rejected
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "melody_upstream_request_duration_seconds",
			Help:    "Duration of catalog API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	UpstreamBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "melody_upstream_breaker_state",
			Help: "Catalog API circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	EnrichedSongs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melody_enriched_songs_total",
			Help: "Songs whose playback data was backfilled, by outcome",
		},
		[]string{"outcome"}, // enriched, failed
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melody_recommendations_total",
			Help: "Recommendation results by source tier",
		},
		[]string{"source"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melody_http_requests_total",
			Help: "HTTP requests served by route pattern and status",
		},
		[]string{"pattern", "status"},
	)
)

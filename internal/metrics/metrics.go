// Package metrics provides Prometheus metrics for the companion backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Marvel Rivals API Metrics
	RivalsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rivals_upstream_requests_total",
			Help: "Total number of Marvel Rivals API requests",
		},
		[]string{"endpoint", "status"},
	)

	RivalsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rivals_upstream_request_duration_seconds",
			Help:    "Marvel Rivals API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Assistant (Gemini) Metrics
	AssistantRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rivals_assistant_requests_total",
			Help: "Total number of Gemini API requests made by the assistant",
		},
	)

	AssistantErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rivals_assistant_errors_total",
			Help: "Assistant upstream errors by class",
		},
		[]string{"class"}, // "network", "auth", "quota", "safety", "parse", "api"
	)

	AssistantFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rivals_assistant_fallbacks_total",
			Help: "Assistant responses served from the local fallback path",
		},
	)

	AssistantRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rivals_assistant_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the assistant rate limiter",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Favorites Metrics
	FavoritesSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rivals_favorites_saved_total",
			Help: "Total number of favorite messages saved",
		},
	)
)

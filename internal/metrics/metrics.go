// Package metrics defines Prometheus metrics for bidwatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bidwatch"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Update engine metrics.
var (
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Duration of update engine ticks in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	ChecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checks_total",
		Help:      "Total number of completed listing fetches.",
	})

	CheckErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_errors_total",
		Help:      "Total number of failed listing checks.",
	})

	EndedTransitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ended_transitions_total",
		Help:      "Total number of automatic active-to-ended transitions.",
	})

	NotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of change notifications posted.",
	})

	TrackedListings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_listings",
		Help:      "Number of tracked listings by status.",
	}, []string{"status"})
)

// Data source metrics.
var (
	SourceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_fetches_total",
		Help:      "Total data source fetches by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	SourceFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_fallbacks_total",
		Help:      "Total number of API-to-scrape strategy fallbacks.",
	})
)

// Gateway metrics.
var (
	GatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_errors_total",
		Help:      "Total messaging gateway operation failures by operation.",
	}, []string{"op"})
)

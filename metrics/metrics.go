package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lifecycle counters. ConsumeConflicts counts compare-and-swap retries,
// which is the signal to watch if a hot paste ever sees real contention.
var (
	PastesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebit_pastes_created_total",
		Help: "Number of pastes created.",
	})
	ViewsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebit_views_consumed_total",
		Help: "Number of paste views successfully consumed.",
	})
	ConsumeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebit_consume_conflicts_total",
		Help: "Number of consume attempts retried after losing a compare-and-swap race.",
	})
)

// HTTP request instrumentation, attached as Gin middleware in main.
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pastebit_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pastebit_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

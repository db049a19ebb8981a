// Package metrics exposes Prometheus collectors for the HTTP layer and
// the business counters worth graphing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gespro"

var (
	// HTTPRequestsTotal counts requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DocumentsCommitted counts committed documents by kind.
	DocumentsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_committed_total",
			Help:      "Total number of committed documents",
		},
		[]string{"kind"},
	)

	// PaymentsRecorded counts payment updates on sales.
	PaymentsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Total number of recorded sale payments",
		},
	)

	// SubscriptionsActivated counts paid subscription activations.
	SubscriptionsActivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_activated_total",
			Help:      "Total number of activated subscriptions",
		},
	)

	// SnapshotFailures counts best-effort document snapshot failures.
	SnapshotFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_failures_total",
			Help:      "Total number of failed document snapshot writes",
		},
	)
)

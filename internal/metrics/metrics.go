package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "inventory_console"
)

var (
	// Upstream API
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of requests to the inventory API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})

	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Count of requests to the inventory API.",
	}, []string{"method", "status"})

	// Views
	TablesRenderedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tables_rendered_total",
		Help:      "Number of table descriptions produced, by mapper kind.",
	}, []string{"kind"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notifications dispatched to the console, by variant.",
	}, []string{"variant"})

	// Bulk operations
	SystemsDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "systems_deleted_total",
		Help:      "Systems submitted for deletion, by outcome.",
	}, []string{"outcome"})
)

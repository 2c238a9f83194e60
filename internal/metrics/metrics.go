// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "insights"

var (
	// DashboardDuration tracks how long a dashboard view takes to build,
	// including store fetches.
	DashboardDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_build_seconds",
			Help:      "Time spent building a dashboard view.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"view", "period"},
	)

	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_cache_total",
			Help:      "Dashboard cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	SegmentOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segment_operations_total",
			Help:      "Segment create/delete operations by result.",
		},
		[]string{"operation", "result"},
	)

	SegmentMembers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_members",
			Help:      "Number of members in newly created segments.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	IngestMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_total",
			Help:      "Order events consumed by result (stored, invalid, error).",
		},
		[]string{"result"},
	)

	ExportedRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_rows_total",
			Help:      "Customer rows written to segment exports.",
		},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation metrics
var (
	PassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backdrops_reindex_passes_total",
			Help: "Total number of reindex passes by outcome",
		},
		[]string{"outcome"}, // "written", "unchanged", "failed"
	)

	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backdrops_reindex_pass_duration_seconds",
			Help:    "Reindex pass duration in seconds, Begin to Commit",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PassChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backdrops_reindex_changes_total",
			Help: "Catalog changes applied by reindex passes",
		},
		[]string{"kind"}, // "added", "removed", "moved", "unreadable"
	)

	CatalogBackgrounds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backdrops_catalog_backgrounds",
			Help: "Number of backgrounds in the catalog after the last pass",
		},
	)
)

// Index build metrics
var (
	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backdrops_index_build_duration_seconds",
			Help:    "Tag and name index rebuild duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backdrops_index_workers",
			Help: "Metadata read pool width used by the last index build",
		},
	)
)

// Query metrics
var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backdrops_queries_total",
			Help: "Total number of catalog queries by result cache outcome",
		},
		[]string{"cache"}, // "hit", "miss"
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backdrops_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)
)

// Relocation metrics
var (
	MovesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backdrops_moves_total",
			Help: "Total number of background moves by method",
		},
		[]string{"method"}, // "rename", "copy", "failed"
	)

	CleanupRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backdrops_cleanup_retries_total",
			Help: "Retried removals of leftover source folders",
		},
	)

	CleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backdrops_cleanup_failures_total",
			Help: "Leftover source folders that could not be removed",
		},
	)
)

// Watcher metrics
var (
	WatchEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backdrops_watch_events_total",
			Help: "Filesystem events received from watched roots",
		},
	)

	WatchPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backdrops_watch_passes_total",
			Help: "Reindex passes triggered by the watcher",
		},
	)
)

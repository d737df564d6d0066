// Package metrics provides Prometheus metrics for the corpus service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MergesTotal tracks document merges by status
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "merge",
			Name:      "merges_total",
			Help:      "Total number of document merges by status",
		},
		[]string{"status"},
	)

	// MergeDuration tracks merge duration in seconds
	MergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "corpus",
			Subsystem: "merge",
			Name:      "duration_seconds",
			Help:      "Duration of document merges in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// MergeAbsorbedDocuments tracks how many documents each merge consolidates
	MergeAbsorbedDocuments = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "corpus",
			Subsystem: "merge",
			Name:      "absorbed_documents",
			Help:      "Number of documents absorbed per merge",
			Buckets:   []float64{1, 2, 3, 5, 10, 25},
		},
	)

	// IndexNotificationsTotal tracks change notifications by entity kind and outcome
	IndexNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "index",
			Name:      "notifications_total",
			Help:      "Total number of change notifications by entity kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// IndexRecordsWritten tracks index record writes by operation
	IndexRecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "index",
			Name:      "records_written_total",
			Help:      "Total number of index records written by operation and status",
		},
		[]string{"operation", "status"},
	)

	// IndexWriteDuration tracks index write duration
	IndexWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "corpus",
			Subsystem: "index",
			Name:      "write_duration_seconds",
			Help:      "Duration of index write operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// EntityChangesTotal tracks entity change events consumed by kind and status
	EntityChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "index",
			Name:      "entity_changes_total",
			Help:      "Total number of entity change events consumed",
		},
		[]string{"kind", "status"},
	)

	// ReindexRequestsTotal tracks reindex requests consumed by status
	ReindexRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "index",
			Name:      "reindex_requests_total",
			Help:      "Total number of reindex requests consumed",
		},
		[]string{"status"},
	)
)

// RecordMerge records a merge attempt
func RecordMerge(status string, absorbed int, durationSeconds float64) {
	MergesTotal.WithLabelValues(status).Inc()
	if status == "success" {
		MergeAbsorbedDocuments.Observe(float64(absorbed))
	}
	MergeDuration.Observe(durationSeconds)
}

// RecordIndexWrite records an index write operation
func RecordIndexWrite(operation, status string, durationSeconds float64) {
	IndexRecordsWritten.WithLabelValues(operation, status).Inc()
	IndexWriteDuration.Observe(durationSeconds)
}

// RecordNotification records a change notification outcome
func RecordNotification(kind, outcome string) {
	IndexNotificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Origins of a merge run
const (
	OriginHTTP  = "http"
	OriginKafka = "kafka"
)

var (
	// MergeRequestsTotal tracks merge runs by outcome (success, invalid_input, internal_error)
	MergeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merge",
			Name:      "requests_total",
			Help:      "Total number of merge runs by status",
		},
		[]string{"status", "origin"},
	)

	// MergeDuration tracks how long the engine takes per run
	MergeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "merge",
			Name:      "duration_seconds",
			Help:      "Duration of merge runs in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"origin"},
	)

	// MergeRecordsTotal counts records of successful merge runs, computed or served from cache
	MergeRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merge",
			Name:      "records_total",
			Help:      "Total number of records by kind (input, output, duplicates)",
		},
		[]string{"kind"},
	)

	// ReviewFlagsTotal counts manual review reasons attached to merged records
	ReviewFlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merge",
			Name:      "review_flags_total",
			Help:      "Total number of manual review reasons by reason",
		},
		[]string{"reason"},
	)

	// CacheTotal tracks result cache lookups
	CacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merge",
			Name:      "cache_total",
			Help:      "Total number of result cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// RecordMerge records the record counters and review flags of a successful run
func RecordMerge(resp *models.MergeResponse) {
	MergeRecordsTotal.WithLabelValues("input").Add(float64(resp.TotalInput))
	MergeRecordsTotal.WithLabelValues("output").Add(float64(resp.TotalOutput))
	MergeRecordsTotal.WithLabelValues("duplicates").Add(float64(resp.DuplicatesRemoved))

	for _, m := range resp.Merged {
		for _, reason := range m.ReviewReasons {
			ReviewFlagsTotal.WithLabelValues(string(reason)).Inc()
		}
	}
}

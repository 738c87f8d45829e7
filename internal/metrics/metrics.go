// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the planner and its storage.
type Metrics struct {
	// AI flows
	FlowRequestsTotal *prometheus.CounterVec
	FlowDuration      *prometheus.HistogramVec

	// Scheduling
	ScheduledItemsTotal *prometheus.CounterVec
	TimeParseTotal      *prometheus.CounterVec

	// Tasks
	TasksMigratedTotal prometheus.Counter

	// Storage
	StoreOpsTotal   *prometheus.CounterVec
	StoreOpDuration *prometheus.HistogramVec

	// Scrubbing
	RedactionsTotal prometheus.Counter
}

// New creates and registers the collectors.
//
// Registration happens once per process; later calls return the same
// instance so tests and multiple servers can share it.
//
// Metrics:
//   - architect_flow_requests_total{flow,outcome}
//   - architect_flow_duration_seconds{flow}
//   - architect_scheduled_items_total{result} ("added" or "skipped")
//   - architect_time_parse_total{pattern} ("none" when unrecognized)
//   - architect_tasks_migrated_total
//   - architect_store_ops_total{backend,op,outcome}
//   - architect_store_op_duration_seconds{backend,op}
//   - architect_redactions_total
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			FlowRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "architect_flow_requests_total",
					Help: "Total number of AI flow invocations",
				},
				[]string{"flow", "outcome"}, // outcome: "ok", "invalid_input", "malformed_output", "error"
			),
			FlowDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "architect_flow_duration_seconds",
					Help:    "Duration of AI flow invocations in seconds",
					Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
				},
				[]string{"flow"},
			),
			ScheduledItemsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "architect_scheduled_items_total",
					Help: "Scheduled items returned by the model, by result",
				},
				[]string{"result"},
			),
			TimeParseTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "architect_time_parse_total",
					Help: "Time strings interpreted, by matched pattern",
				},
				[]string{"pattern"},
			),
			TasksMigratedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "architect_tasks_migrated_total",
					Help: "Total number of tasks moved to the following day",
				},
			),
			StoreOpsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "architect_store_ops_total",
					Help: "Key-value store operations",
				},
				[]string{"backend", "op", "outcome"},
			),
			StoreOpDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "architect_store_op_duration_seconds",
					Help:    "Duration of key-value store operations in seconds",
					Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
				},
				[]string{"backend", "op"},
			),
			RedactionsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "architect_redactions_total",
					Help: "Secrets redacted from text before it reached a model",
				},
			),
		}
	})
	return globalMetrics
}

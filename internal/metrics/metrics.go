// Package metrics provides Prometheus metrics for the condition engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cube"

var (
	// ConditionsApplied tracks condition applications per strategy.
	ConditionsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conditions_applied_total",
			Help:      "Total condition applications",
		},
		[]string{"strategy", "status"}, // strategy: slab/dense/sparse, status: success/error
	)

	// CellsEvaluated tracks cells evaluated per strategy.
	CellsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_evaluated_total",
			Help:      "Total cells evaluated against conditions",
		},
		[]string{"strategy"},
	)

	// ApplyLatency tracks condition application latency.
	ApplyLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "condition_apply_latency_seconds",
			Help:      "Condition application latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// TilesFiltered tracks tiles processed by the reader.
	TilesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_filtered_total",
			Help:      "Total tiles filtered by the reader",
		},
		[]string{"status"}, // success/error
	)
)

// ObserveApply records one condition application.
func ObserveApply(strategy string, cells uint64, latencySeconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ConditionsApplied.WithLabelValues(strategy, status).Inc()
	if err == nil {
		CellsEvaluated.WithLabelValues(strategy).Add(float64(cells))
	}
	ApplyLatency.WithLabelValues(strategy).Observe(latencySeconds)
}

// IncTileFiltered records one tile pass through the reader.
func IncTileFiltered(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	TilesFiltered.WithLabelValues(status).Inc()
}

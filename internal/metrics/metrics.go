package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Tester_Group = "group"
	Tester_Ic    = "ic"

	Status_Success = "success"
	Status_Error   = "error"
)

var (
	// RunsTotal counts tester runs.
	// Labels: tester (group, ic), status (success, error)
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "factorlens",
		Subsystem: "tester",
		Name:      "runs_total",
		Help:      "Total factor tester runs",
	}, []string{"tester", "status"})

	// RunDuration measures wall time of a full run.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "factorlens",
		Subsystem: "tester",
		Name:      "run_duration_seconds",
		Help:      "Factor tester run latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"tester"})

	// DegenerateDates counts dates replaced by a placeholder result.
	// Labels: tester, reason (empty, degenerate)
	DegenerateDates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "factorlens",
		Subsystem: "tester",
		Name:      "degenerate_dates_total",
		Help:      "Cross-sections that could not be evaluated",
	}, []string{"tester", "reason"})

	// ExpressionCells counts factor cells evaluated from an expression.
	ExpressionCells = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "factorlens",
		Subsystem: "expression",
		Name:      "cells_total",
		Help:      "Factor expression cells evaluated",
	})
)

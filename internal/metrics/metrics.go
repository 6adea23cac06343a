// Package metrics exposes the application's Prometheus instrumentation:
// pipeline stage outcomes, scheduler lane totals, queue depth, and circuit
// breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "golfswarm"

var (
	// PipelineStageTotal counts stage executions by stage name and outcome
	// (ok, failed, defaulted).
	PipelineStageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "stage_total",
		Help:      "Pipeline stage executions by stage and outcome.",
	}, []string{"stage", "outcome"})

	// UploadsTotal counts processed uploads by final result.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "uploads_total",
		Help:      "Processed shot uploads by result.",
	}, []string{"result"})

	// LaneTasksTotal counts scheduler task completions by lane and outcome.
	LaneTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "swarm",
		Name:      "lane_tasks_total",
		Help:      "Scheduler task completions by lane and outcome.",
	}, []string{"lane", "outcome"})

	// CacheLookupsTotal counts performance-lane cache lookups by result.
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "swarm",
		Name:      "cache_lookups_total",
		Help:      "Performance-lane cache lookups by result (hit, miss).",
	}, []string{"result"})

	// QueueDepth tracks the number of buffered jobs per lane.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Buffered jobs per queue lane.",
	}, []string{"lane"})

	// QueueJobsTotal counts queue job completions by lane and outcome.
	QueueJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "jobs_total",
		Help:      "Queue job completions by lane and outcome.",
	}, []string{"lane", "outcome"})

	// CircuitState reports each worker's circuit breaker state (0 closed,
	// 1 open).
	CircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "health",
		Name:      "circuit_open",
		Help:      "Circuit breaker state per worker (0 closed, 1 open).",
	}, []string{"worker"})

	// HealthChecksTotal counts health check results by worker and state.
	HealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "health",
		Name:      "checks_total",
		Help:      "Health check results by worker and state.",
	}, []string{"worker", "state"})
)

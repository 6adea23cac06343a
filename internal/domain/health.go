package domain

import "time"

// HealthState classifies a worker's most recent health check.
type HealthState string

// Possible health states
const (
	HealthStateHealthy  HealthState = "healthy"
	HealthStateDegraded HealthState = "degraded"
	HealthStateError    HealthState = "error"
)

// AgentHealthStatus is the per-worker record maintained by the health
// monitor. It is mutated only by the monitor; the message router reads it
// when deciding whether a worker is eligible for delivery.
type AgentHealthStatus struct {
	State       HealthState `json:"status"`
	LastCheck   time.Time   `json:"last_check"`
	ErrorDetail string      `json:"error_detail,omitempty"`

	// CircuitOpen reports whether the worker's circuit breaker is
	// currently open; tasks routed to it are rejected without attempt.
	CircuitOpen bool `json:"circuit_open"`
}

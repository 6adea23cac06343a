package agents

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// ErrDegraded marks a health check that succeeded but found the worker in a
// reduced-capacity state. The monitor records degraded instead of error.
var ErrDegraded = errors.New("worker is degraded")

// Agent is the uniform contract every specialized worker exposes for
// health monitoring.
type Agent interface {
	// Name returns the worker's stable identifier, e.g. "score" or
	// "cache".
	Name() string

	// HealthCheck probes the worker. A nil return means healthy; an
	// error wrapping ErrDegraded means degraded; any other error means
	// the worker is failing.
	HealthCheck(ctx context.Context) error
}

// Executor is an Agent that accepts free-form roadmap tasks. The swarm
// scheduler routes tasks to executors by task type.
type Executor interface {
	Agent

	// Execute runs one task and returns its JSON-encoded output.
	Execute(ctx context.Context, task domain.Task) (json.RawMessage, error)
}

// ackOutput is the minimal acknowledgment executors return when a task has
// no richer output.
func ackOutput(worker, taskID string) json.RawMessage {
	out, _ := json.Marshal(map[string]string{
		"worker":  worker,
		"task_id": taskID,
		"status":  "completed",
	})
	return out
}

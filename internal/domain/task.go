package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// TaskPriority orders tasks within and across lanes.
type TaskPriority string

// Possible task priorities
const (
	TaskPriorityCritical TaskPriority = "critical"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityNormal   TaskPriority = "normal"
	TaskPriorityLow      TaskPriority = "low"
)

// Lane is one of the four scheduling categories tasks are classified into.
type Lane string

// The four lanes, in descending urgency.
const (
	LaneCritical    Lane = "critical"
	LanePerformance Lane = "performance"
	LaneUI          Lane = "ui"
	LaneBackground  Lane = "background"
)

// Lanes lists every lane in descending urgency order.
func Lanes() []Lane {
	return []Lane{LaneCritical, LanePerformance, LaneUI, LaneBackground}
}

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskType     = errors.New("task type cannot be empty")
	ErrInvalidTaskDelay  = errors.New("task delay cannot be negative")
	ErrUnknownLane       = errors.New("unknown lane")
	ErrInvalidJobPayload = errors.New("queue job payload is not valid JSON")
)

// Task is a unit of roadmap work flowing through the classifier and the
// swarm scheduler. Identity is the ID: it keys idempotent result caching
// and progress tracking.
type Task struct {
	ID       string          `json:"id"`
	Priority TaskPriority    `json:"priority,omitempty"`
	Category string          `json:"category,omitempty"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the task's required fields.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskID
	}
	if t.Type == "" {
		return ErrEmptyTaskType
	}
	return nil
}

// TaskResult is the per-task outcome reported by the scheduler.
type TaskResult struct {
	TaskID   string          `json:"task_id"`
	Lane     Lane            `json:"lane"`
	Success  bool            `json:"success"`
	Output   json.RawMessage `json:"output,omitempty"`
	Error    string          `json:"error,omitempty"`
	Cached   bool            `json:"cached,omitempty"`
	Queued   bool            `json:"queued,omitempty"`
	Duration time.Duration   `json:"duration_ns,omitempty"`
}

// QueueJob wraps a Task for durable queue processing. Higher Priority values
// drain first within a lane; Delay postpones the earliest execution time.
type QueueJob struct {
	Task      Task          `json:"task"`
	Lane      Lane          `json:"lane"`
	Priority  int           `json:"priority"`
	Delay     time.Duration `json:"delay,omitempty"`
	Attempts  int           `json:"attempts"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewQueueJob creates a QueueJob for the given lane.
func NewQueueJob(task Task, lane Lane, priority int, delay time.Duration) (*QueueJob, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if delay < 0 {
		return nil, ErrInvalidTaskDelay
	}

	return &QueueJob{
		Task:      task,
		Lane:      lane,
		Priority:  priority,
		Delay:     delay,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ReadyAt returns the earliest time the job may execute.
func (j *QueueJob) ReadyAt() time.Time {
	return j.CreatedAt.Add(j.Delay)
}

package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/beargallbladder/golfswarm/internal/agents"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// Scheduler defaults.
const (
	defaultMaxConcurrent = 10
	defaultCacheTTL      = 5 * time.Minute
)

// Enqueuer accepts background-lane jobs for deferred processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *domain.QueueJob) error
}

// ResultCache is the read-through/write-through store for performance-lane
// task results.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Gate decides whether a worker may receive traffic. A non-nil error from
// Allow rejects the dispatch without invoking the worker. Dispatch outcomes
// are reported back so an admitted half-open probe can close or reopen the
// worker's circuit.
type Gate interface {
	Allow(worker string) error
	RecordSuccess(worker string)
	RecordFailure(worker string)
}

// RoadmapResult aggregates per-task outcomes across all four lanes.
type RoadmapResult struct {
	Total       int                 `json:"total"`
	Successful  int                 `json:"successful"`
	Failed      int                 `json:"failed"`
	Results     []domain.TaskResult `json:"results"`
	Errors      []string            `json:"errors,omitempty"`
	SuccessRate string              `json:"success_rate"`
}

// Scheduler executes classified task batches. One weighted semaphore bounds
// concurrent task execution across every lane; lanes never get private
// budgets.
type Scheduler struct {
	executors map[string]agents.Executor
	fallback  agents.Executor

	sem      *semaphore.Weighted
	cache    ResultCache
	cacheTTL time.Duration
	queue    Enqueuer
	gate     Gate
	logger   *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMaxConcurrent overrides the global concurrency cap.
func WithMaxConcurrent(n int64) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithResultCache wires the performance-lane result cache.
func WithResultCache(c ResultCache, ttl time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithQueue wires the background-lane queue.
func WithQueue(q Enqueuer) SchedulerOption {
	return func(s *Scheduler) { s.queue = q }
}

// WithGate wires the circuit-breaker gate consulted before each dispatch.
func WithGate(g Gate) SchedulerOption {
	return func(s *Scheduler) { s.gate = g }
}

// NewScheduler creates a Scheduler with the default concurrency cap and a
// generic fallback handler for unmatched task types.
func NewScheduler(logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		executors: make(map[string]agents.Executor),
		fallback:  genericHandler{},
		sem:       semaphore.NewWeighted(defaultMaxConcurrent),
		cacheTTL:  defaultCacheTTL,
		logger:    logger.With("component", "swarm_scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register routes tasks of the given type to the executor. Later
// registrations for the same type win.
func (s *Scheduler) Register(taskType string, exec agents.Executor) {
	s.executors[taskType] = exec
}

// Executors returns every registered executor once, for health
// registration.
func (s *Scheduler) Executors() []agents.Executor {
	seen := make(map[string]bool, len(s.executors))
	out := make([]agents.Executor, 0, len(s.executors))
	for _, exec := range s.executors {
		if seen[exec.Name()] {
			continue
		}
		seen[exec.Name()] = true
		out = append(out, exec)
	}
	return out
}

// ExecuteRoadmap classifies the batch and runs all four lanes concurrently
// to completion. A lane that panics contributes zero tasks to the
// aggregate instead of failing the roadmap; per-task failures are counted,
// never propagated.
func (s *Scheduler) ExecuteRoadmap(ctx context.Context, tasks []domain.Task) *RoadmapResult {
	classified := Classify(tasks)

	laneResults := make([][]domain.TaskResult, len(domain.Lanes()))
	var wg sync.WaitGroup
	for i, lane := range domain.Lanes() {
		wg.Add(1)
		go func(i int, lane domain.Lane) {
			defer wg.Done()
			laneResults[i] = s.runLane(ctx, lane, classified.Lane(lane))
		}(i, lane)
	}
	wg.Wait()

	return aggregate(laneResults)
}

// runLane executes one lane's tasks. The background lane enqueues; the
// other lanes dispatch concurrently under the shared semaphore. A panic
// anywhere in the lane yields a nil slice, which aggregation treats as
// zero tasks.
func (s *Scheduler) runLane(ctx context.Context, lane domain.Lane, tasks []domain.Task) (results []domain.TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("lane panicked, dropping its results", "lane", lane, "panic", r)
			results = nil
		}
	}()

	if len(tasks) == 0 {
		return []domain.TaskResult{}
	}

	if lane == domain.LaneBackground {
		return s.enqueueLane(ctx, tasks)
	}

	results = make([]domain.TaskResult, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task domain.Task) {
			defer wg.Done()
			results[i] = s.dispatch(ctx, lane, task)
		}(i, task)
	}
	wg.Wait()
	return results
}

// dispatch runs one task through the cache (performance lane only), the
// gate, and the type-routed executor, under the global semaphore.
func (s *Scheduler) dispatch(ctx context.Context, lane domain.Lane, task domain.Task) domain.TaskResult {
	start := time.Now()
	result := domain.TaskResult{TaskID: task.ID, Lane: lane}

	if err := task.Validate(); err != nil {
		result.Error = err.Error()
		metrics.LaneTasksTotal.WithLabelValues(string(lane), "failed").Inc()
		return result
	}

	exec := s.executors[task.Type]
	if exec == nil {
		exec = s.fallback
	}

	// Read-through: a cached result short-circuits the worker entirely,
	// so it is served even while the worker's circuit is open.
	cacheKey := "task:" + task.ID
	if lane == domain.LanePerformance && s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cacheKey); ok {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			result.Success = true
			result.Cached = true
			result.Output = cached
			result.Duration = time.Since(start)
			metrics.LaneTasksTotal.WithLabelValues(string(lane), "cached").Inc()
			return result
		}
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	if s.gate != nil {
		if err := s.gate.Allow(exec.Name()); err != nil {
			result.Error = err.Error()
			result.Duration = time.Since(start)
			metrics.LaneTasksTotal.WithLabelValues(string(lane), "rejected").Inc()
			return result
		}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		result.Error = fmt.Sprintf("failed to acquire execution slot: %v", err)
		result.Duration = time.Since(start)
		metrics.LaneTasksTotal.WithLabelValues(string(lane), "failed").Inc()
		return result
	}
	output, err := s.guardExecute(ctx, exec, task)
	s.sem.Release(1)

	result.Duration = time.Since(start)
	if err != nil {
		if s.gate != nil {
			s.gate.RecordFailure(exec.Name())
		}
		s.logger.WarnContext(ctx, "task execution failed",
			"task_id", task.ID, "task_type", task.Type, "lane", lane, "worker", exec.Name(), "error", err)
		result.Error = err.Error()
		metrics.LaneTasksTotal.WithLabelValues(string(lane), "failed").Inc()
		return result
	}
	if s.gate != nil {
		s.gate.RecordSuccess(exec.Name())
	}

	result.Success = true
	result.Output = output

	// Write-through: every successful performance-lane result lands in
	// the cache under a fixed TTL.
	if lane == domain.LanePerformance && s.cache != nil {
		s.cache.Set(ctx, cacheKey, output, s.cacheTTL)
	}

	metrics.LaneTasksTotal.WithLabelValues(string(lane), "ok").Inc()
	return result
}

// guardExecute converts a worker panic into an error so one bad task never
// takes down the lane.
func (s *Scheduler) guardExecute(ctx context.Context, exec agents.Executor, task domain.Task) (output json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %s panicked: %v", exec.Name(), r)
		}
	}()
	return exec.Execute(ctx, task)
}

// enqueueLane hands background tasks to the durable queue and reports an
// immediate queued acknowledgment for each.
func (s *Scheduler) enqueueLane(ctx context.Context, tasks []domain.Task) []domain.TaskResult {
	results := make([]domain.TaskResult, 0, len(tasks))
	for _, task := range tasks {
		result := domain.TaskResult{TaskID: task.ID, Lane: domain.LaneBackground}

		if s.queue == nil {
			result.Error = "no background queue configured"
			results = append(results, result)
			metrics.LaneTasksTotal.WithLabelValues(string(domain.LaneBackground), "failed").Inc()
			continue
		}

		job, err := domain.NewQueueJob(task, domain.LaneBackground, priorityWeight(task.Priority), 0)
		if err == nil {
			err = s.queue.Enqueue(ctx, job)
		}
		if err != nil {
			result.Error = fmt.Sprintf("failed to enqueue task: %v", err)
			results = append(results, result)
			metrics.LaneTasksTotal.WithLabelValues(string(domain.LaneBackground), "failed").Inc()
			continue
		}

		result.Success = true
		result.Queued = true
		results = append(results, result)
		metrics.LaneTasksTotal.WithLabelValues(string(domain.LaneBackground), "queued").Inc()
	}
	return results
}

// priorityWeight maps task priority to the queue's numeric priority.
// Higher drains first.
func priorityWeight(p domain.TaskPriority) int {
	switch p {
	case domain.TaskPriorityCritical:
		return 30
	case domain.TaskPriorityHigh:
		return 20
	case domain.TaskPriorityNormal:
		return 10
	default:
		return 0
	}
}

// aggregate folds the lane result slices into roadmap totals. Counting is
// per task, not per lane; a rejected lane (nil slice) contributes nothing.
func aggregate(laneResults [][]domain.TaskResult) *RoadmapResult {
	agg := &RoadmapResult{Results: []domain.TaskResult{}}
	for _, results := range laneResults {
		for _, r := range results {
			agg.Total++
			agg.Results = append(agg.Results, r)
			if r.Success {
				agg.Successful++
			} else {
				agg.Failed++
				agg.Errors = append(agg.Errors, r.Error)
			}
		}
	}

	rate := 0.0
	if agg.Total > 0 {
		rate = float64(agg.Successful) / float64(agg.Total) * 100
	}
	agg.SuccessRate = fmt.Sprintf("%.2f%%", rate)
	return agg
}

// genericHandler absorbs tasks whose type has no registered executor. It
// acknowledges rather than erroring so unknown roadmap entries degrade
// gracefully.
type genericHandler struct{}

func (genericHandler) Name() string { return "generic" }

func (genericHandler) HealthCheck(_ context.Context) error { return nil }

func (genericHandler) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	out, err := json.Marshal(map[string]string{
		"worker":  "generic",
		"task_id": task.ID,
		"status":  "completed",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generic result: %w", err)
	}
	return out, nil
}

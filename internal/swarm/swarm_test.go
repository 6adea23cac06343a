package swarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("partitions by priority and category", func(t *testing.T) {
		t.Parallel()

		tasks := []domain.Task{
			{ID: "t1", Type: "deploy", Priority: domain.TaskPriorityCritical},
			{ID: "t2", Type: "tune", Category: "performance"},
			{ID: "t3", Type: "layout", Category: "ui"},
			{ID: "t4", Type: "cleanup", Priority: domain.TaskPriorityLow},
		}

		c := Classify(tasks)

		require.Len(t, c.Critical, 1)
		assert.Equal(t, "t1", c.Critical[0].ID)
		require.Len(t, c.Performance, 1)
		assert.Equal(t, "t2", c.Performance[0].ID)
		require.Len(t, c.UI, 1)
		assert.Equal(t, "t3", c.UI[0].ID)
		require.Len(t, c.Background, 1)
		assert.Equal(t, "t4", c.Background[0].ID)
	})

	t.Run("mobile routes to ui lane and seo to background", func(t *testing.T) {
		t.Parallel()

		c := Classify([]domain.Task{
			{ID: "m1", Type: "viewport", Category: "mobile"},
			{ID: "s1", Type: "audit", Category: "seo", Priority: domain.TaskPriorityNormal},
		})

		require.Len(t, c.UI, 1)
		assert.Equal(t, "m1", c.UI[0].ID)
		require.Len(t, c.Background, 1)
		assert.Equal(t, "s1", c.Background[0].ID)
	})

	t.Run("multi-lane membership is preserved", func(t *testing.T) {
		t.Parallel()

		c := Classify([]domain.Task{
			{ID: "both", Type: "tune", Priority: domain.TaskPriorityCritical, Category: "performance"},
		})

		require.Len(t, c.Critical, 1)
		require.Len(t, c.Performance, 1)
		assert.Equal(t, "both", c.Critical[0].ID)
		assert.Equal(t, "both", c.Performance[0].ID)
		assert.Empty(t, c.UI)
		assert.Empty(t, c.Background)
	})

	t.Run("empty input yields empty lanes", func(t *testing.T) {
		t.Parallel()

		c := Classify(nil)
		assert.Empty(t, c.Critical)
		assert.Empty(t, c.Performance)
		assert.Empty(t, c.UI)
		assert.Empty(t, c.Background)
	})
}

// scriptedExecutor fails the task IDs it is told to and succeeds otherwise.
type scriptedExecutor struct {
	name     string
	failIDs  map[string]bool
	panicIDs map[string]bool

	mu    sync.Mutex
	calls []string
}

func (s *scriptedExecutor) Name() string { return s.name }

func (s *scriptedExecutor) HealthCheck(_ context.Context) error { return nil }

func (s *scriptedExecutor) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, task.ID)
	s.mu.Unlock()

	if s.panicIDs[task.ID] {
		panic("worker blew up on " + task.ID)
	}
	if s.failIDs[task.ID] {
		return nil, errors.New("task " + task.ID + " failed")
	}
	return json.RawMessage(`{"done":true}`), nil
}

func (s *scriptedExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

type memoryQueue struct {
	mu   sync.Mutex
	jobs []*domain.QueueJob
	err  error
}

func (m *memoryQueue) Enqueue(_ context.Context, job *domain.QueueJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *memoryQueue) enqueued() []*domain.QueueJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.QueueJob(nil), m.jobs...)
}

type blockingGate struct {
	mu        sync.Mutex
	blocked   map[string]bool
	successes []string
	failures  []string
}

func (g *blockingGate) Allow(worker string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.blocked[worker] {
		return errors.New("circuit open for worker " + worker)
	}
	return nil
}

func (g *blockingGate) RecordSuccess(worker string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.successes = append(g.successes, worker)
}

func (g *blockingGate) RecordFailure(worker string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = append(g.failures, worker)
}

func (g *blockingGate) recorded() (successes, failures []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.successes...), append([]string(nil), g.failures...)
}

func TestExecuteRoadmap_SuccessRate(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{
		name:    "performance-optimizer",
		failIDs: map[string]bool{"t3": true, "t7": true, "t9": true},
	}
	s := NewScheduler(slog.Default())
	s.Register("tune", exec)

	// Ten critical tasks, three scripted to fail.
	tasks := make([]domain.Task, 0, 10)
	for i := 1; i <= 10; i++ {
		tasks = append(tasks, domain.Task{
			ID:       fmt.Sprintf("t%d", i),
			Type:     "tune",
			Priority: domain.TaskPriorityCritical,
		})
	}

	result := s.ExecuteRoadmap(context.Background(), tasks)

	assert.Equal(t, 10, result.Total)
	assert.Equal(t, 7, result.Successful)
	assert.Equal(t, 3, result.Failed)
	assert.Equal(t, "70.00%", result.SuccessRate)
	assert.Len(t, result.Errors, 3)
	assert.Len(t, result.Results, 10)
}

func TestExecuteRoadmap_EmptyBatch(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	result := s.ExecuteRoadmap(context.Background(), nil)

	assert.Zero(t, result.Total)
	assert.Equal(t, "0.00%", result.SuccessRate)
	assert.Empty(t, result.Errors)
}

func TestExecuteRoadmap_UnknownTypeFallsThroughToGeneric(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	result := s.ExecuteRoadmap(context.Background(), []domain.Task{
		{ID: "mystery", Type: "never-registered", Priority: domain.TaskPriorityCritical},
	})

	require.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Successful)
	require.Len(t, result.Results, 1)

	var out map[string]string
	require.NoError(t, json.Unmarshal(result.Results[0].Output, &out))
	assert.Equal(t, "generic", out["worker"])
}

func TestExecuteRoadmap_WorkerPanicFailsOnlyThatTask(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{
		name:     "scalability",
		panicIDs: map[string]bool{"bad": true},
	}
	s := NewScheduler(slog.Default())
	s.Register("capacity", exec)

	result := s.ExecuteRoadmap(context.Background(), []domain.Task{
		{ID: "good", Type: "capacity", Priority: domain.TaskPriorityCritical},
		{ID: "bad", Type: "capacity", Priority: domain.TaskPriorityCritical},
	})

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "panicked")
}

func TestExecuteRoadmap_PerformanceLaneCache(t *testing.T) {
	t.Parallel()

	t.Run("hit short-circuits the worker", func(t *testing.T) {
		t.Parallel()

		exec := &scriptedExecutor{name: "performance-optimizer"}
		cache := newMemoryCache()
		cache.items["task:warm"] = []byte(`{"cached":"result"}`)

		s := NewScheduler(slog.Default(), WithResultCache(cache, time.Minute))
		s.Register("tune", exec)

		result := s.ExecuteRoadmap(context.Background(), []domain.Task{
			{ID: "warm", Type: "tune", Category: "performance"},
		})

		require.Len(t, result.Results, 1)
		assert.True(t, result.Results[0].Success)
		assert.True(t, result.Results[0].Cached)
		assert.JSONEq(t, `{"cached":"result"}`, string(result.Results[0].Output))
		assert.Zero(t, exec.callCount(), "cache hit must not invoke the worker")
	})

	t.Run("miss executes and writes through", func(t *testing.T) {
		t.Parallel()

		exec := &scriptedExecutor{name: "performance-optimizer"}
		cache := newMemoryCache()

		s := NewScheduler(slog.Default(), WithResultCache(cache, time.Minute))
		s.Register("tune", exec)

		result := s.ExecuteRoadmap(context.Background(), []domain.Task{
			{ID: "cold", Type: "tune", Category: "performance"},
		})

		require.Len(t, result.Results, 1)
		assert.True(t, result.Results[0].Success)
		assert.False(t, result.Results[0].Cached)
		assert.Equal(t, 1, exec.callCount())

		cached, ok := cache.Get(context.Background(), "task:cold")
		require.True(t, ok, "successful result must be written back")
		assert.JSONEq(t, `{"done":true}`, string(cached))
	})

	t.Run("critical lane bypasses the cache", func(t *testing.T) {
		t.Parallel()

		exec := &scriptedExecutor{name: "performance-optimizer"}
		cache := newMemoryCache()
		cache.items["task:urgent"] = []byte(`{"stale":"value"}`)

		s := NewScheduler(slog.Default(), WithResultCache(cache, time.Minute))
		s.Register("tune", exec)

		result := s.ExecuteRoadmap(context.Background(), []domain.Task{
			{ID: "urgent", Type: "tune", Priority: domain.TaskPriorityCritical},
		})

		require.Len(t, result.Results, 1)
		assert.False(t, result.Results[0].Cached)
		assert.Equal(t, 1, exec.callCount())
	})
}

func TestExecuteRoadmap_BackgroundLaneEnqueues(t *testing.T) {
	t.Parallel()

	t.Run("tasks are queued, not executed", func(t *testing.T) {
		t.Parallel()

		exec := &scriptedExecutor{name: "seo"}
		queue := &memoryQueue{}
		s := NewScheduler(slog.Default(), WithQueue(queue))
		s.Register("seo-task", exec)

		result := s.ExecuteRoadmap(context.Background(), []domain.Task{
			{ID: "audit-1", Type: "seo-task", Category: "seo"},
			{ID: "cleanup-1", Type: "cleanup", Priority: domain.TaskPriorityLow},
		})

		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 2, result.Successful)
		for _, r := range result.Results {
			assert.True(t, r.Queued)
			assert.Equal(t, domain.LaneBackground, r.Lane)
		}
		assert.Zero(t, exec.callCount(), "background tasks never execute inline")

		jobs := queue.enqueued()
		require.Len(t, jobs, 2)
		assert.Equal(t, domain.LaneBackground, jobs[0].Lane)
	})

	t.Run("enqueue failure fails the task", func(t *testing.T) {
		t.Parallel()

		queue := &memoryQueue{err: errors.New("broker unavailable")}
		s := NewScheduler(slog.Default(), WithQueue(queue))

		result := s.ExecuteRoadmap(context.Background(), []domain.Task{
			{ID: "doomed", Type: "cleanup", Priority: domain.TaskPriorityLow},
		})

		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "broker unavailable")
	})

	t.Run("missing queue fails background tasks", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(slog.Default())
		result := s.ExecuteRoadmap(context.Background(), []domain.Task{
			{ID: "orphan", Type: "cleanup", Priority: domain.TaskPriorityLow},
		})

		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "no background queue")
	})
}

func TestExecuteRoadmap_GateRejection(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{name: "security"}
	gate := &blockingGate{blocked: map[string]bool{"security": true}}
	s := NewScheduler(slog.Default(), WithGate(gate))
	s.Register("audit", exec)

	result := s.ExecuteRoadmap(context.Background(), []domain.Task{
		{ID: "scan", Type: "audit", Priority: domain.TaskPriorityCritical},
	})

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "circuit open")
	assert.Zero(t, exec.callCount(), "a tripped circuit must not invoke the worker")
}

func TestExecuteRoadmap_GateSeesDispatchOutcomes(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{
		name:    "security",
		failIDs: map[string]bool{"bad": true},
	}
	gate := &blockingGate{blocked: map[string]bool{}}
	s := NewScheduler(slog.Default(), WithGate(gate))
	s.Register("audit", exec)

	s.ExecuteRoadmap(context.Background(), []domain.Task{
		{ID: "good", Type: "audit", Priority: domain.TaskPriorityCritical},
		{ID: "bad", Type: "audit", Priority: domain.TaskPriorityCritical},
	})

	successes, failures := gate.recorded()
	assert.Equal(t, []string{"security"}, successes)
	assert.Equal(t, []string{"security"}, failures)
}

func TestExecuteRoadmap_CacheHitBypassesOpenGate(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{name: "cache"}
	gate := &blockingGate{blocked: map[string]bool{"cache": true}}
	resultCache := newMemoryCache()
	resultCache.Set(context.Background(), "task:warm", []byte(`{"hit":true}`), time.Minute)

	s := NewScheduler(slog.Default(), WithGate(gate), WithResultCache(resultCache, time.Minute))
	s.Register("lookup", exec)

	result := s.ExecuteRoadmap(context.Background(), []domain.Task{
		{ID: "warm", Type: "lookup", Category: "performance"},
	})

	assert.Equal(t, 1, result.Successful)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Cached)
	assert.Zero(t, exec.callCount(), "a cached result needs no worker call")

	// An uncached task for the same worker is still rejected.
	rejected := s.ExecuteRoadmap(context.Background(), []domain.Task{
		{ID: "cold", Type: "lookup", Category: "performance"},
	})
	assert.Equal(t, 1, rejected.Failed)
	assert.Zero(t, exec.callCount())
}

func TestExecuteRoadmap_ConcurrencyCap(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	exec := &countingExecutor{
		onExecute: func() {
			mu.Lock()
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
		},
	}

	s := NewScheduler(slog.Default(), WithMaxConcurrent(3))
	s.Register("burst", exec)

	tasks := make([]domain.Task, 0, 20)
	for i := 0; i < 20; i++ {
		tasks = append(tasks, domain.Task{
			ID:       fmt.Sprintf("burst-%d", i),
			Type:     "burst",
			Priority: domain.TaskPriorityCritical,
		})
	}

	result := s.ExecuteRoadmap(context.Background(), tasks)

	assert.Equal(t, 20, result.Successful)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 3, "global semaphore must bound concurrent executions")
}

func TestExecuteRoadmap_TaskValidation(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	result := s.ExecuteRoadmap(context.Background(), []domain.Task{
		{ID: "", Type: "tune", Priority: domain.TaskPriorityCritical},
	})

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "task ID")
}

type countingExecutor struct {
	onExecute func()
}

func (c *countingExecutor) Name() string { return "counting" }

func (c *countingExecutor) HealthCheck(_ context.Context) error { return nil }

func (c *countingExecutor) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	c.onExecute()
	return json.RawMessage(`{}`), nil
}

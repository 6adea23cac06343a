package queue

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/metrics"
)

// Default pool sizes per lane, in descending urgency, and retry policy.
const (
	defaultCriticalWorkers    = 5
	defaultPerformanceWorkers = 3
	defaultUIWorkers          = 2
	defaultBackgroundWorkers  = 1
	defaultMaxAttempts        = 3
	defaultBufferSize         = 256
	retryBackoff              = 5 * time.Second
	dispatchPoll              = 250 * time.Millisecond
)

// ErrManagerStopped rejects enqueues after Stop.
var ErrManagerStopped = errors.New("queue manager is stopped")

// ErrQueueFull rejects enqueues into a lane at its buffer capacity.
var ErrQueueFull = errors.New("lane queue is full")

// Handler processes one dequeued task.
type Handler func(ctx context.Context, task domain.Task) error

// JobStore persists job lifecycle transitions. All methods are best-effort
// from the manager's perspective: store errors are logged, never fatal to
// the in-memory queue.
type JobStore interface {
	Save(ctx context.Context, job *domain.QueueJob) error
	MarkProcessing(ctx context.Context, taskID string, lane domain.Lane) error
	MarkCompleted(ctx context.Context, taskID string, lane domain.Lane) error
	MarkFailed(ctx context.Context, taskID string, lane domain.Lane, errMsg string) error
	PendingJobs(ctx context.Context, lane domain.Lane) ([]*domain.QueueJob, error)
}

// Manager owns the four lane queues and their worker pools.
type Manager struct {
	lanes       map[domain.Lane]*laneQueue
	handlers    map[string]Handler
	store       JobStore
	maxAttempts int
	bufferSize  int
	backoff     time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithJobStore makes the queues durable through the given store.
func WithJobStore(store JobStore) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithRetryBackoff overrides the delay applied to requeued jobs.
func WithRetryBackoff(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.backoff = d
		}
	}
}

// NewManager creates a Manager with one queue per lane, sized from cfg with
// defaults for zero values.
func NewManager(cfg config.QueueConfig, logger *slog.Logger, opts ...ManagerOption) *Manager {
	pools := map[domain.Lane]int{
		domain.LaneCritical:    poolSize(cfg.CriticalWorkers, defaultCriticalWorkers),
		domain.LanePerformance: poolSize(cfg.PerformanceWorkers, defaultPerformanceWorkers),
		domain.LaneUI:          poolSize(cfg.UIWorkers, defaultUIWorkers),
		domain.LaneBackground:  poolSize(cfg.BackgroundWorkers, defaultBackgroundWorkers),
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	m := &Manager{
		lanes:       make(map[domain.Lane]*laneQueue, len(pools)),
		handlers:    make(map[string]Handler),
		maxAttempts: maxAttempts,
		bufferSize:  bufferSize,
		backoff:     retryBackoff,
		logger:      logger.With("component", "queue_manager"),
	}
	for lane, workers := range pools {
		m.lanes[lane] = newLaneQueue(lane, workers)
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

func poolSize(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

// Register routes dequeued tasks of the given type to the handler.
func (m *Manager) Register(taskType string, h Handler) {
	m.handlers[taskType] = h
}

// Enqueue adds a job to its lane's queue, persisting it first when a store
// is wired. Lanes at their configured buffer capacity reject new jobs with
// ErrQueueFull. Safe for concurrent use.
func (m *Manager) Enqueue(ctx context.Context, job *domain.QueueJob) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrManagerStopped
	}
	m.mu.Unlock()

	lq, ok := m.lanes[job.Lane]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownLane, job.Lane)
	}
	if lq.depth() >= m.bufferSize {
		return fmt.Errorf("%w: lane %q at capacity %d", ErrQueueFull, job.Lane, m.bufferSize)
	}

	if m.store != nil {
		if err := m.store.Save(ctx, job); err != nil {
			return fmt.Errorf("failed to persist queue job: %w", err)
		}
	}

	lq.push(job)
	metrics.QueueDepth.WithLabelValues(string(job.Lane)).Inc()
	metrics.QueueJobsTotal.WithLabelValues(string(job.Lane), "enqueued").Inc()
	return nil
}

// Depth returns the number of jobs waiting in the lane.
func (m *Manager) Depth(lane domain.Lane) int {
	lq, ok := m.lanes[lane]
	if !ok {
		return 0
	}
	return lq.depth()
}

// Start recovers persisted pending jobs and launches each lane's worker
// pool. It is not restartable after Stop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("queue manager already started")
	}
	m.started = true

	if m.store != nil {
		if err := m.recover(ctx); err != nil {
			return fmt.Errorf("failed to recover queued jobs: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	for _, lq := range m.lanes {
		for i := 0; i < lq.workers; i++ {
			m.wg.Add(1)
			go m.worker(runCtx, lq, i)
		}
	}
	return nil
}

// Stop drains nothing: it cancels workers, waits for in-flight jobs to
// finish, and rejects further enqueues. Pending jobs stay in the store for
// the next start.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// recover reloads each lane's pending jobs in drain order.
func (m *Manager) recover(ctx context.Context) error {
	for lane, lq := range m.lanes {
		jobs, err := m.store.PendingJobs(ctx, lane)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			lq.push(job)
			metrics.QueueDepth.WithLabelValues(string(lane)).Inc()
		}
		if len(jobs) > 0 {
			m.logger.Info("recovered pending jobs", "lane", lane, "count", len(jobs))
		}
	}
	return nil
}

// worker pops ready jobs from the lane and processes them until the
// manager stops. Jobs whose delay has not elapsed stay queued.
func (m *Manager) worker(ctx context.Context, lq *laneQueue, id int) {
	defer m.wg.Done()

	ticker := time.NewTicker(dispatchPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			job := lq.popReady(time.Now())
			if job == nil {
				break
			}
			metrics.QueueDepth.WithLabelValues(string(lq.lane)).Dec()
			m.process(ctx, lq, job, id)
		}
	}
}

// process runs one job through its handler, retrying transient failures up
// to the attempt limit. Unrecognized task types are logged and dropped.
func (m *Manager) process(ctx context.Context, lq *laneQueue, job *domain.QueueJob, workerID int) {
	log := m.logger.With(
		"task_id", job.Task.ID,
		"task_type", job.Task.Type,
		"lane", lq.lane,
		"worker_id", workerID,
	)

	handler, ok := m.handlers[job.Task.Type]
	if !ok {
		log.Warn("dropping job with unrecognized task type")
		metrics.QueueJobsTotal.WithLabelValues(string(lq.lane), "dropped").Inc()
		m.markFailed(ctx, job, "unrecognized task type")
		return
	}

	job.Attempts++
	if m.store != nil {
		if err := m.store.MarkProcessing(ctx, job.Task.ID, job.Lane); err != nil {
			log.Warn("failed to mark job processing", "error", err)
		}
	}

	err := m.guardHandle(ctx, handler, job.Task)
	if err == nil {
		log.Debug("job completed")
		metrics.QueueJobsTotal.WithLabelValues(string(lq.lane), "completed").Inc()
		if m.store != nil {
			if markErr := m.store.MarkCompleted(ctx, job.Task.ID, job.Lane); markErr != nil {
				log.Warn("failed to mark job completed", "error", markErr)
			}
		}
		return
	}

	if job.Attempts < m.maxAttempts {
		log.Warn("job failed, requeueing",
			"attempt", job.Attempts, "max_attempts", m.maxAttempts, "error", err)
		metrics.QueueJobsTotal.WithLabelValues(string(lq.lane), "retried").Inc()

		// Push the job back with a backoff delay relative to now.
		job.CreatedAt = time.Now().UTC()
		job.Delay = m.backoff
		lq.push(job)
		metrics.QueueDepth.WithLabelValues(string(lq.lane)).Inc()
		return
	}

	log.Error("job failed permanently", "attempts", job.Attempts, "error", err)
	metrics.QueueJobsTotal.WithLabelValues(string(lq.lane), "failed").Inc()
	m.markFailed(ctx, job, err.Error())
}

func (m *Manager) markFailed(ctx context.Context, job *domain.QueueJob, reason string) {
	if m.store == nil {
		return
	}
	if err := m.store.MarkFailed(ctx, job.Task.ID, job.Lane, reason); err != nil {
		m.logger.Warn("failed to mark job failed",
			"task_id", job.Task.ID, "lane", job.Lane, "error", err)
	}
}

// guardHandle converts a handler panic into an error so one bad job never
// kills a lane worker.
func (m *Manager) guardHandle(ctx context.Context, handler Handler, task domain.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, task)
}

// laneQueue is one lane's in-memory priority queue: higher job priority
// drains first, ties break oldest-first.
type laneQueue struct {
	lane    domain.Lane
	workers int

	mu   sync.Mutex
	jobs jobHeap
}

func newLaneQueue(lane domain.Lane, workers int) *laneQueue {
	return &laneQueue{lane: lane, workers: workers}
}

func (q *laneQueue) push(job *domain.QueueJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.jobs, job)
}

// popReady removes and returns the highest-priority job whose delay has
// elapsed, or nil when none is ready. A delayed job at the head blocks
// lower-priority ready jobs behind it; delays are scheduling hints, not
// priority overrides.
func (q *laneQueue) popReady(now time.Time) *domain.QueueJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.jobs.Len() == 0 {
		return nil
	}
	if q.jobs[0].ReadyAt().After(now) {
		return nil
	}
	return heap.Pop(&q.jobs).(*domain.QueueJob)
}

func (q *laneQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.jobs.Len()
}

// jobHeap orders jobs by priority descending, then creation time ascending.
type jobHeap []*domain.QueueJob

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].CreatedAt.Before(h[j].CreatedAt)
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(*domain.QueueJob)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return job
}

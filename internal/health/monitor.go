package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/beargallbladder/golfswarm/internal/agents"
	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/metrics"
)

// Monitor defaults applied for zero config values.
const (
	defaultCheckInterval    = 10 * time.Second
	defaultCheckTimeout     = 5 * time.Second
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

// Monitor probes registered workers on a fixed tick and maintains their
// health records and circuit breakers. The tick runs on its own goroutine
// and never blocks request traffic.
type Monitor struct {
	interval         time.Duration
	timeout          time.Duration
	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time
	logger           *slog.Logger

	mu       sync.RWMutex
	workers  map[string]agents.Agent
	statuses map[string]domain.AgentHealthStatus
	breakers map[string]*breaker

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a Monitor from the health configuration, applying
// defaults for zero values.
func NewMonitor(cfg config.HealthConfig, logger *slog.Logger) *Monitor {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	timeout := cfg.CheckTimeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	return &Monitor{
		interval:         interval,
		timeout:          timeout,
		failureThreshold: threshold,
		cooldown:         cooldown,
		now:              time.Now,
		logger:           logger.With("component", "health_monitor"),
		workers:          make(map[string]agents.Agent),
		statuses:         make(map[string]domain.AgentHealthStatus),
		breakers:         make(map[string]*breaker),
	}
}

// Register adds a worker to the monitored set. Registering the same name
// twice replaces the worker but keeps its breaker history.
func (m *Monitor) Register(worker agents.Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := worker.Name()
	m.workers[name] = worker
	if _, ok := m.breakers[name]; !ok {
		m.breakers[name] = newBreaker(m.failureThreshold, m.cooldown, m.now)
		m.statuses[name] = domain.AgentHealthStatus{State: domain.HealthStateHealthy}
	}
}

// RegisterAll registers every worker in the slice.
func (m *Monitor) RegisterAll(workers []agents.Agent) {
	for _, w := range workers {
		m.Register(w)
	}
}

// Start launches the periodic check loop. The first sweep runs
// immediately so status is available before the first tick.
func (m *Monitor) Start() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)

		m.sweep(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()
}

// Stop halts the check loop and waits for the in-flight sweep to finish.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}

// sweep checks every registered worker once. Checks run sequentially; a
// hung worker is bounded by the per-check timeout.
func (m *Monitor) sweep(ctx context.Context) {
	m.mu.RLock()
	workers := make([]agents.Agent, 0, len(m.workers))
	for _, w := range m.workers {
		workers = append(workers, w)
	}
	m.mu.RUnlock()

	for _, worker := range workers {
		m.checkWorker(ctx, worker)
	}
}

// checkWorker probes one worker and folds the outcome into its status and
// breaker. A panicking or timed-out check counts as a worker error.
func (m *Monitor) checkWorker(ctx context.Context, worker agents.Agent) {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.guardCheck(checkCtx, worker)
	cancel()

	name := worker.Name()
	state := domain.HealthStateHealthy
	detail := ""
	switch {
	case err == nil:
	case errors.Is(err, agents.ErrDegraded):
		state = domain.HealthStateDegraded
		detail = err.Error()
	default:
		state = domain.HealthStateError
		detail = err.Error()
	}

	m.mu.Lock()
	br := m.breakers[name]
	if br == nil {
		m.mu.Unlock()
		return
	}

	// Only hard errors feed the breaker; a degraded worker still takes
	// traffic.
	if state == domain.HealthStateError {
		br.recordFailure()
	} else {
		br.recordSuccess()
	}

	open := br.isOpen()
	m.statuses[name] = domain.AgentHealthStatus{
		State:       state,
		LastCheck:   m.now().UTC(),
		ErrorDetail: detail,
		CircuitOpen: open,
	}
	m.mu.Unlock()

	metrics.HealthChecksTotal.WithLabelValues(name, string(state)).Inc()
	circuitValue := 0.0
	if open {
		circuitValue = 1.0
	}
	metrics.CircuitState.WithLabelValues(name).Set(circuitValue)

	if state != domain.HealthStateHealthy {
		m.logger.Warn("worker health check not healthy",
			"worker", name, "state", state, "circuit_open", open, "detail", detail)
	}
}

func (m *Monitor) guardCheck(ctx context.Context, worker agents.Agent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("health check panicked")
		}
	}()

	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- errors.New("health check panicked")
			}
		}()
		result <- worker.HealthCheck(ctx)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Allow reports whether the worker may receive traffic. Unknown workers
// are allowed; the breaker only guards workers the monitor tracks.
func (m *Monitor) Allow(worker string) error {
	m.mu.RLock()
	br := m.breakers[worker]
	m.mu.RUnlock()

	if br == nil {
		return nil
	}
	if br.allow() {
		return nil
	}
	return &ErrCircuitOpen{Worker: worker, RetryTime: br.retryTime()}
}

// RecordSuccess feeds a successful dispatch outcome into the worker's
// breaker, closing a half-open circuit.
func (m *Monitor) RecordSuccess(worker string) {
	m.mu.RLock()
	br := m.breakers[worker]
	m.mu.RUnlock()
	if br != nil {
		br.recordSuccess()
	}
}

// RecordFailure feeds a failed dispatch outcome into the worker's breaker.
func (m *Monitor) RecordFailure(worker string) {
	m.mu.RLock()
	br := m.breakers[worker]
	m.mu.RUnlock()
	if br != nil {
		br.recordFailure()
	}
}

// IsHealthy reports whether the worker's last check was healthy or
// degraded with a closed circuit. Unknown workers are unhealthy.
func (m *Monitor) IsHealthy(worker string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[worker]
	if !ok {
		return false
	}
	return status.State != domain.HealthStateError && !status.CircuitOpen
}

// AgentStatus returns a copy of every worker's current health record.
func (m *Monitor) AgentStatus() map[string]domain.AgentHealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]domain.AgentHealthStatus, len(m.statuses))
	for name, status := range m.statuses {
		out[name] = status
	}
	return out
}

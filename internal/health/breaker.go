package health

import (
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen rejects a call without attempting the worker.
type ErrCircuitOpen struct {
	Worker    string
	RetryTime time.Time
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit open for worker %s until %s", e.Worker, e.RetryTime.UTC().Format(time.RFC3339))
}

// breaker is the per-worker circuit state machine. Closed passes calls
// through; after failureThreshold consecutive failures it opens and
// rejects until the cooldown elapses. The first call after cooldown is a
// probe: success closes the circuit, failure reopens it immediately.
type breaker struct {
	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time

	mu          sync.Mutex
	consecutive int
	open        bool
	probing     bool
	openedAt    time.Time
}

func newBreaker(failureThreshold int, cooldown time.Duration, now func() time.Time) *breaker {
	return &breaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              now,
	}
}

// allow reports whether a call may proceed. While open and cooling down it
// returns false; once the cooldown elapses it admits a single probe.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	if b.probing {
		return false
	}
	b.probing = true
	return true
}

// recordSuccess resets the failure streak and closes the circuit.
func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
	b.open = false
	b.probing = false
}

// recordFailure advances the failure streak; reaching the threshold, or
// failing the half-open probe, opens the circuit and restarts the
// cooldown.
func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive++
	if b.probing || b.consecutive >= b.failureThreshold {
		b.open = true
		b.probing = false
		b.openedAt = b.now()
	}
}

// isOpen reports the circuit state without admitting a probe.
func (b *breaker) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// retryTime reports when the cooldown elapses. Meaningful only while open.
func (b *breaker) retryTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openedAt.Add(b.cooldown)
}

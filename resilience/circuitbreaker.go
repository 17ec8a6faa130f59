// Package resilience implements the CircuitBreaker and Retry primitives the
// FallbackManager composes around every agent execution.
package resilience

import (
	"sync"
	"time"

	"github.com/lookatitude/beluga-kernel/core"
)

// State is one of the three circuit breaker states.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

const (
	defaultThreshold         = 5
	defaultOpenTimeout       = 60 * time.Second
	defaultHalfOpenSuccesses = 3
)

// CircuitBreaker is a three-state gate that fails fast after a run of
// consecutive failures and periodically probes for recovery. Only raised
// failures count against the breaker — a logical failure represented as a
// Result with Success=false is the retry layer's concern, not the
// breaker's; see the FallbackManager's composition for where that boundary
// is drawn.
type CircuitBreaker struct {
	threshold         int
	openTimeout       time.Duration
	halfOpenSuccesses int

	mu            sync.Mutex
	state         State
	failureCount  int
	successCount  int
	lastFailureAt time.Time
}

// NewCircuitBreaker creates a CircuitBreaker. A threshold <= 0 defaults to
// 5, an openTimeout <= 0 defaults to 60s, and a halfOpenSuccesses <= 0
// defaults to 3.
func NewCircuitBreaker(threshold int, openTimeout time.Duration, halfOpenSuccesses int) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}
	if halfOpenSuccesses <= 0 {
		halfOpenSuccesses = defaultHalfOpenSuccesses
	}
	return &CircuitBreaker{
		threshold:         threshold,
		openTimeout:       openTimeout,
		halfOpenSuccesses: halfOpenSuccesses,
		state:             StateClosed,
	}
}

// State returns the breaker's current state, resolving an OPEN state whose
// openTimeout has elapsed into HALF_OPEN as a side effect (matching Gate's
// own resolution so observers and callers agree).
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.resolveLocked()
	return cb.state
}

// resolveLocked transitions OPEN -> HALF_OPEN once openTimeout has elapsed.
// Caller must hold cb.mu.
func (cb *CircuitBreaker) resolveLocked() {
	if cb.state == StateOpen && time.Since(cb.lastFailureAt) >= cb.openTimeout {
		cb.state = StateHalfOpen
		cb.successCount = 0
	}
}

// Gate evaluates fn under the breaker. If the breaker is OPEN and the
// openTimeout has not elapsed, fn is not invoked and Gate returns a
// *core.Error with code CIRCUIT_OPEN. Otherwise fn runs with the breaker's
// lock released, and the outcome is recorded per the state table in this
// package's design notes.
func (cb *CircuitBreaker) Gate(fn func() (any, error)) (any, error) {
	cb.mu.Lock()
	cb.resolveLocked()
	if cb.state == StateOpen {
		cb.mu.Unlock()
		return nil, core.NewError("resilience.CircuitBreaker.Gate", core.ErrCircuitOpen, "circuit is open", nil)
	}
	cb.mu.Unlock()

	result, err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked()
	} else {
		cb.recordSuccessLocked()
	}
	return result, err
}

func (cb *CircuitBreaker) recordFailureLocked() {
	cb.lastFailureAt = time.Now()
	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.threshold {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		cb.state = StateOpen
		// failureCount stays at or above threshold.
	}
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.halfOpenSuccesses {
			cb.state = StateClosed
			cb.failureCount = 0
		}
	}
}

// Reset forces the breaker back to CLOSED with counters cleared.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
}

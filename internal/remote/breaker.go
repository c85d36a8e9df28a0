package remote

import (
	"errors"
	"sync"
	"time"

	"github.com/tair/seller-dashboard/pkg/logger"
)

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation
	StateOpen     CircuitState = "open"      // Blocking requests
	StateHalfOpen CircuitState = "half-open" // Probing for recovery
)

// CircuitBreaker stops calling the remote API after consecutive server-side
// failures. Only transport errors and 5xx responses count as failures; a 4xx
// is the caller's problem, not the service's.
type CircuitBreaker struct {
	name            string
	maxFailures     int
	cooldown        time.Duration
	recoverAfter    int
	state           CircuitState
	failures        int
	successCount    int
	lastStateChange time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker returns nil when maxFailures is not positive, which
// disables breaking entirely.
func NewCircuitBreaker(name string, maxFailures int, cooldown time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		return nil
	}
	return &CircuitBreaker{
		name:            name,
		maxFailures:     maxFailures,
		cooldown:        cooldown,
		recoverAfter:    3,
		state:           StateClosed,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

// Call executes fn with circuit breaker protection
func (cb *CircuitBreaker) Call(fn func() error) error {
	if cb == nil {
		return fn()
	}

	cb.mu.Lock()
	if cb.state == StateOpen && cb.now().Sub(cb.lastStateChange) > cb.cooldown {
		cb.transition(StateHalfOpen)
		cb.successCount = 0
	}
	open := cb.state == StateOpen
	cb.mu.Unlock()

	if open {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if countsAsFailure(err) {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return errors.Is(err, ErrTransport)
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++

	if cb.state == StateHalfOpen {
		cb.transition(StateOpen)
		return
	}
	if cb.failures >= cb.maxFailures {
		logger.Logger.Error().
			Str("circuit", cb.name).
			Int("failures", cb.failures).
			Int("threshold", cb.maxFailures).
			Msg("Circuit breaker opened")
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.recoverAfter {
			cb.failures = 0
			cb.successCount = 0
			cb.transition(StateClosed)
		}
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	logger.Logger.Info().
		Str("circuit", cb.name).
		Str("from", string(cb.state)).
		Str("to", string(to)).
		Msg("Circuit breaker state change")
	cb.state = to
	cb.lastStateChange = cb.now()
}

// State returns the current state; a disabled breaker is always closed
func (cb *CircuitBreaker) State() CircuitState {
	if cb == nil {
		return StateClosed
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

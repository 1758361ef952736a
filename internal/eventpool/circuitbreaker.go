package eventpool

import (
	"sync"
	"time"

	"mpm/pkg/logger"
)

// CircuitState is one of the three states a CircuitBreaker can be in.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitBreaker gates batch flushes against a flaky Socket.IO server, per
// spec §3/§4.8. It is grounded line-for-line on
// original_source/core/socketio_pool.py's CircuitBreaker: failureThreshold
// consecutive failures trip CLOSED -> OPEN; recoveryTimeout elapsed allows
// one trial request (OPEN -> HALF_OPEN); that trial's outcome decides
// HALF_OPEN -> CLOSED (success) or HALF_OPEN -> OPEN (failure).
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	recoveryTimeout  time.Duration
	failureCount     int
	lastFailureTime  time.Time
	state            CircuitState
}

// NewCircuitBreaker returns a CLOSED breaker with the spec's default
// thresholds (failure_threshold=5, recovery_timeout=30s).
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: 5,
		recoveryTimeout:  30 * time.Second,
		state:            CircuitClosed,
	}
}

// CanExecute reports whether a flush attempt is currently allowed,
// transitioning OPEN -> HALF_OPEN when recoveryTimeout has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if !cb.lastFailureTime.IsZero() && time.Since(cb.lastFailureTime) > cb.recoveryTimeout {
			cb.state = CircuitHalfOpen
			logger.Infof("circuit breaker transitioning to HALF_OPEN for testing")
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess closes the circuit from HALF_OPEN, or simply resets the
// failure count while already CLOSED.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.state = CircuitClosed
		cb.failureCount = 0
		logger.Infof("circuit breaker CLOSED - service recovered")
	case CircuitClosed:
		cb.failureCount = 0
	}
}

// RecordFailure increments the failure count and opens the circuit either
// immediately (a failed HALF_OPEN trial) or once failureThreshold
// consecutive failures accumulate from CLOSED.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		logger.Warnf("circuit breaker OPEN - recovery test failed")
	case CircuitClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.state = CircuitOpen
			logger.Errorf("circuit breaker OPEN - %d consecutive failures", cb.failureCount)
		}
	}
}

// State returns the current state, for stats/tests.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the current consecutive-failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

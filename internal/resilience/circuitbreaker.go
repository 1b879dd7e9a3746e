// Package resilience provides a circuit breaker for outbound collaborators.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// ErrOpen is returned while the circuit is open and calls are rejected.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker tunables.
type Config struct {
	// FailureThreshold is the consecutive failure count that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the consecutive success count in half-open that closes it.
	SuccessThreshold int
	// Cooldown is how long an open circuit rejects calls before probing again.
	Cooldown time.Duration
}

// DefaultConfig returns conservative defaults for a public web endpoint.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// CircuitBreaker tracks consecutive failures against a named collaborator
// and short-circuits calls while it is considered down.
type CircuitBreaker struct {
	name string
	cfg  Config

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	openedAt    time.Time
	rejected    int64
	totalCalls  int64
	totalErrors int64
}

// New creates a circuit breaker.
func New(name string, cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold < 1 {
		cfg.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg,
		state: StateClosed,
	}
}

// Do runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Do(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err)
	return err
}

// DoWithResult runs fn if the circuit allows it and records the outcome.
func DoWithResult[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := cb.before(); err != nil {
		return zero, err
	}
	v, err := fn()
	cb.after(err)
	if err != nil {
		return zero, err
	}
	return v, nil
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.openedAt) < cb.cfg.Cooldown {
			cb.rejected++
			return ErrOpen
		}
		cb.state = StateHalfOpen
		cb.successes = 0
	}
	cb.totalCalls++
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.totalErrors++
		cb.successes = 0
		if cb.state == StateHalfOpen {
			cb.open()
			return
		}
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.open()
		}
		return
	}

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = StateClosed
		}
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.failures = 0
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the collaborator name this breaker guards.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Stats is a point-in-time snapshot of breaker counters.
type Stats struct {
	Name        string
	State       State
	TotalCalls  int64
	TotalErrors int64
	Rejected    int64
}

// Stats returns current counters.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{
		Name:        cb.name,
		State:       cb.state,
		TotalCalls:  cb.totalCalls,
		TotalErrors: cb.totalErrors,
		Rejected:    cb.rejected,
	}
}

// Reset closes the circuit and clears consecutive counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
}

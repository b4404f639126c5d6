// SPDX-License-Identifier: MIT

// Package resilience guards outbound calls with per-host circuit breakers.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/fivegmag/awareapp/internal/metrics"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// CircuitBreaker opens after threshold consecutive failures and lets a single
// probe through once resetTimeout has elapsed.
type CircuitBreaker struct {
	mu           sync.Mutex
	name         string
	state        State
	failures     int
	threshold    int
	resetTimeout time.Duration
	openedAt     time.Time
	probing      bool
	clock        Clock
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(cb *CircuitBreaker) { cb.clock = c }
}

// NewCircuitBreaker creates a closed breaker. name labels the metrics.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	cb := &CircuitBreaker{
		name:         name,
		state:        StateClosed,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		clock:        realClock{},
	}
	for _, opt := range opts {
		opt(cb)
	}

	metrics.SetCircuitBreakerState(cb.name, string(cb.state))
	return cb
}

// Execute runs fn unless the breaker is open. Errors for which countable
// returns false pass through without affecting the breaker. A nil countable
// counts every error.
func (cb *CircuitBreaker) Execute(fn func() error, countable func(error) bool) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil && (countable == nil || countable(err)) {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.resetTimeout {
			return false
		}
		cb.transitionTo(StateHalfOpen)
		cb.probing = true
		return true
	default:
		// one probe at a time
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.probing = false

	if cb.state == StateHalfOpen {
		metrics.RecordCircuitBreakerTrip(cb.name)
		cb.transitionTo(StateOpen)
		return
	}
	if cb.state == StateClosed && cb.failures >= cb.threshold {
		metrics.RecordCircuitBreakerTrip(cb.name)
		cb.transitionTo(StateOpen)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.probing = false
	cb.transitionTo(StateClosed)
}

// transitionTo updates state and metrics. Caller must hold lock.
func (cb *CircuitBreaker) transitionTo(newState State) {
	if cb.state == newState {
		return
	}
	cb.state = newState
	if newState == StateOpen {
		cb.openedAt = cb.clock.Now()
	}
	metrics.SetCircuitBreakerState(cb.name, string(newState))
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Registry hands out one breaker per host. A zero threshold disables breaking.
type Registry struct {
	mu           sync.Mutex
	threshold    int
	resetTimeout time.Duration
	opts         []Option
	breakers     map[string]*CircuitBreaker
}

// NewRegistry creates a per-host breaker registry.
func NewRegistry(threshold int, resetTimeout time.Duration, opts ...Option) *Registry {
	return &Registry{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		opts:         opts,
		breakers:     make(map[string]*CircuitBreaker),
	}
}

// Enabled reports whether breakers are active.
func (r *Registry) Enabled() bool {
	return r != nil && r.threshold > 0
}

// For returns the breaker for host, or nil when the registry is disabled.
func (r *Registry) For(host string) *CircuitBreaker {
	if !r.Enabled() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[host]
	if !ok {
		cb = NewCircuitBreaker(host, r.threshold, r.resetTimeout, r.opts...)
		r.breakers[host] = cb
	}
	return cb
}

// States snapshots the state of every known breaker.
func (r *Registry) States() map[string]State {
	out := make(map[string]State)
	if !r.Enabled() {
		return out
	}
	r.mu.Lock()
	breakers := make(map[string]*CircuitBreaker, len(r.breakers))
	for host, cb := range r.breakers {
		breakers[host] = cb
	}
	r.mu.Unlock()
	for host, cb := range breakers {
		out[host] = cb.State()
	}
	return out
}

// Package resilience guards calls to the calendar provider with a circuit
// breaker.
package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"econdash/internal/errors"
)

// State is the state of a circuit breaker.
type State string

const (
	StateClosed   State = "closed"    // calls pass through
	StateOpen     State = "open"      // calls are rejected
	StateHalfOpen State = "half_open" // probing whether the provider recovered
)

// ErrCircuitOpen is returned without calling the provider while the circuit
// is open. It wraps errors.ErrProviderUnavailable.
var ErrCircuitOpen = fmt.Errorf("%w: circuit open", errors.ErrProviderUnavailable)

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	// Zero disables the breaker.
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that closes it again.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before a probe is let through.
	Cooldown time.Duration
}

// Stats is a snapshot of a breaker.
type Stats struct {
	Name            string    `json:"name"`
	State           State     `json:"state"`
	Failures        int       `json:"failures"`
	TotalCalls      int64     `json:"total_calls"`
	TotalFailures   int64     `json:"total_failures"`
	TotalRejected   int64     `json:"total_rejected"`
	LastFailure     time.Time `json:"last_failure,omitempty"`
	LastStateChange time.Time `json:"last_state_change"`
}

// Breaker is a consecutive-failure circuit breaker. Cancelled or expired
// contexts are not counted as failures.
type Breaker struct {
	name     string
	config   BreakerConfig
	now      func() time.Time
	onChange func(name string, from, to State)

	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	lastFailure     time.Time
	lastStateChange time.Time
	totalCalls      int64
	totalFailures   int64
	totalRejected   int64
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

// OnStateChange registers a callback run on every transition, outside the lock.
func OnStateChange(fn func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) { b.onChange = fn }
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, config BreakerConfig, opts ...BreakerOption) *Breaker {
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 1
	}
	b := &Breaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastStateChange = b.now()
	return b
}

// Execute runs fn unless the circuit is open.
func Execute[T any](b *Breaker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if b == nil || b.config.FailureThreshold <= 0 {
		return fn(ctx)
	}
	if err := b.allow(); err != nil {
		return zero, err
	}

	v, err := fn(ctx)
	switch {
	case err == nil:
		b.record(true)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
	default:
		b.record(false)
	}
	return v, err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	b.totalCalls++
	if b.state == StateOpen {
		if b.now().Sub(b.lastFailure) < b.config.Cooldown {
			b.totalRejected++
			b.mu.Unlock()
			return fmt.Errorf("%w (%s)", ErrCircuitOpen, b.name)
		}
		from := b.transition(StateHalfOpen)
		b.mu.Unlock()
		b.notify(from, StateHalfOpen)
		return nil
	}
	b.mu.Unlock()
	return nil
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	var from, to State
	if ok {
		switch b.state {
		case StateHalfOpen:
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				from, to = b.transition(StateClosed), StateClosed
			}
		case StateClosed:
			b.failures = 0
		}
	} else {
		b.totalFailures++
		b.lastFailure = b.now()
		switch b.state {
		case StateClosed:
			b.failures++
			if b.failures >= b.config.FailureThreshold {
				from, to = b.transition(StateOpen), StateOpen
			}
		case StateHalfOpen:
			from, to = b.transition(StateOpen), StateOpen
		}
	}
	b.mu.Unlock()
	if to != "" {
		b.notify(from, to)
	}
}

// transition must be called with mu held. It returns the previous state.
func (b *Breaker) transition(to State) State {
	from := b.state
	b.state = to
	b.lastStateChange = b.now()
	b.failures = 0
	b.successes = 0
	return from
}

func (b *Breaker) notify(from, to State) {
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:            b.name,
		State:           b.state,
		Failures:        b.failures,
		TotalCalls:      b.totalCalls,
		TotalFailures:   b.totalFailures,
		TotalRejected:   b.totalRejected,
		LastFailure:     b.lastFailure,
		LastStateChange: b.lastStateChange,
	}
}

// Reset closes the circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.transition(StateClosed)
	b.mu.Unlock()
	if from != StateClosed {
		b.notify(from, StateClosed)
	}
}

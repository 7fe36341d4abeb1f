// Package resilience guards calls to remote dataset hosts with retries and a
// circuit breaker.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Counts is a snapshot of what the breaker has seen since it last changed state.
type Counts struct {
	Requests            int
	ConsecutiveFailures int
	Successes           int
	Rejected            int
}

type CircuitBreakerConfig struct {
	Name string
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int
	// Timeout is how long the circuit stays open before a trial call.
	Timeout time.Duration
	// HalfOpenMax successful trial calls close the circuit again.
	HalfOpenMax int
	// IsFailure decides which errors count against the host. By default every
	// error except context cancellation does.
	IsFailure     func(err error) bool
	OnStateChange func(name string, from, to State)
}

type CircuitBreaker struct {
	cfg    CircuitBreakerConfig
	now    func() time.Time
	mu      sync.Mutex
	state   State
	counts  Counts
	openAt  time.Time
	pending []transition

	// notifyMu is taken before mu is released, so callbacks run in the
	// order the transitions happened.
	notifyMu sync.Mutex
}

type transition struct {
	from, to State
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openAt) <= cb.cfg.Timeout {
			cb.counts.Rejected++
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
	}

	cb.counts.Requests++
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.unlock()

	if err != nil && cb.cfg.IsFailure(err) {
		cb.counts.ConsecutiveFailures++
		if cb.state == StateHalfOpen || cb.counts.ConsecutiveFailures >= cb.cfg.MaxFailures {
			cb.openAt = cb.now()
			cb.setState(StateOpen)
		}
		return
	}

	cb.counts.ConsecutiveFailures = 0
	cb.counts.Successes++
	if cb.state == StateHalfOpen && cb.counts.Successes >= cb.cfg.HalfOpenMax {
		cb.setState(StateClosed)
	}
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	cb.state = to
	cb.counts = Counts{}

	if cb.cfg.OnStateChange != nil && from != to {
		cb.pending = append(cb.pending, transition{from: from, to: to})
	}
}

// unlock releases mu and then delivers the transitions recorded while it was
// held. OnStateChange must not call back into the breaker.
func (cb *CircuitBreaker) unlock() {
	if len(cb.pending) == 0 {
		cb.mu.Unlock()
		return
	}

	pending := cb.pending
	cb.pending = nil
	cb.notifyMu.Lock()
	cb.mu.Unlock()
	defer cb.notifyMu.Unlock()

	for _, t := range pending {
		cb.cfg.OnStateChange(cb.cfg.Name, t.from, t.to)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the circuit and clears its counts.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.unlock()
	cb.setState(StateClosed)
}

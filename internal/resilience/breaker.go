package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

// Breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation.
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

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// Name identifies the guarded remote in errors and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that opens
	// the breaker. Values below 1 are treated as 1.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before admitting
	// a trial call.
	ResetTimeout time.Duration

	// Clock defaults to SystemClock.
	Clock Clock

	// OnStateChange is called under the breaker lock on every transition.
	// It must not call back into the breaker.
	OnStateChange func(name string, from, to State)
}

// Breaker is a circuit breaker for one remote host.
// It is safe for concurrent use.
type Breaker struct {
	name          string
	threshold     int
	resetTimeout  time.Duration
	clock         Clock
	onStateChange func(name string, from, to State)

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	return &Breaker{
		name:          cfg.Name,
		threshold:     cfg.FailureThreshold,
		resetTimeout:  cfg.ResetTimeout,
		clock:         cfg.Clock,
		onStateChange: cfg.OnStateChange,
		state:         StateClosed,
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ConsecutiveFailures returns the current failure streak.
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Allow asks permission for one call. Every nil return must be
// followed by exactly one Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		elapsed := b.clock.Now().Sub(b.openedAt)
		if elapsed < b.resetTimeout {
			return &CircuitOpenError{Name: b.name, RetryAfter: b.resetTimeout - elapsed}
		}
		b.setState(StateHalfOpen)
		b.trial = true
		return nil
	case StateHalfOpen:
		if b.trial {
			return &CircuitOpenError{Name: b.name}
		}
		b.trial = true
		return nil
	default:
		return nil
	}
}

// Record reports the outcome of an admitted call.
// Cancellation by the caller and Permanent errors leave the failure
// streak untouched; a permanent error still proves the remote is up.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case err == nil || IsPermanent(err):
		b.onSuccess()
	case errors.Is(err, context.Canceled):
		b.trial = false
	default:
		b.onFailure()
	}
}

// Execute runs op if the breaker admits it and records the outcome.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := op(ctx)
	b.Record(err)
	return err
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.trial = false
	b.setState(StateClosed)
}

func (b *Breaker) onSuccess() {
	b.failures = 0
	b.trial = false
	b.setState(StateClosed)
}

func (b *Breaker) onFailure() {
	b.failures++
	switch b.state {
	case StateHalfOpen:
		b.trip()
	case StateClosed:
		if b.failures >= b.threshold {
			b.trip()
		}
	}
}

func (b *Breaker) trip() {
	b.trial = false
	b.openedAt = b.clock.Now()
	b.setState(StateOpen)
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}

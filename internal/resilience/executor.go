package resilience

import (
	"context"
	"time"
)

// Executor runs operations through a breaker and a retry policy.
type Executor struct {
	breaker *Breaker
	policy  RetryPolicy
	onRetry RetryNotify
}

// NewExecutor creates an executor. breaker may be nil to disable
// circuit breaking.
func NewExecutor(breaker *Breaker, policy RetryPolicy) *Executor {
	return &Executor{breaker: breaker, policy: policy}
}

// OnRetry sets a hook called before each retry.
func (e *Executor) OnRetry(fn RetryNotify) *Executor {
	e.onRetry = fn
	return e
}

// Breaker returns the breaker, which may be nil.
func (e *Executor) Breaker() *Breaker {
	return e.breaker
}

// Policy returns the retry policy.
func (e *Executor) Policy() RetryPolicy {
	return e.policy
}

// Execute fails fast with *CircuitOpenError when the breaker is open,
// otherwise retries op and reports the final outcome to the breaker.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	if e.breaker == nil {
		return Retry(ctx, e.policy, op, e.onRetry)
	}
	if err := e.breaker.Allow(); err != nil {
		return err
	}
	err := Retry(ctx, e.policy, op, e.onRetry)
	e.breaker.Record(err)
	return err
}

// Do is Execute for operations that return a value.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// WithTimeout wraps op so each attempt runs under its own deadline.
func WithTimeout(timeout time.Duration, op func(context.Context) error) func(context.Context) error {
	if timeout <= 0 {
		return op
	}
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return op(ctx)
	}
}

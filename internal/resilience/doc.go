// Package resilience wraps remote calls with retry and circuit breaking.
//
// # Circuit Breaker
//
// A Breaker guards one remote host and is shared by every operation that
// talks to it. It starts closed. After FailureThreshold consecutive
// failures it opens and rejects calls with *CircuitOpenError without
// running them. Once ResetTimeout has elapsed on the breaker's Clock it
// admits exactly one trial call (half-open); the trial's outcome closes
// or reopens it.
//
// # Retry
//
// RetryPolicy retries an operation with exponential backoff:
// the delay before retry n is BaseDelay * 2^(n-1), capped at MaxDelay.
// Errors marked with Permanent and *CircuitOpenError are never retried.
//
// # Executor
//
// Executor combines both. A rejected call fails fast without consuming
// retry budget, and each Execute reports one outcome to the breaker.
package resilience

package resilience

import (
	"errors"
	"fmt"
	"time"
)

// CircuitOpenError is returned when a breaker rejects a call.
type CircuitOpenError struct {
	// Name identifies the breaker, usually the remote host.
	Name string

	// RetryAfter is the time left until a trial call is admitted.
	// Zero while a half-open trial is in flight.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("circuit breaker %s is open (retry after %s)", e.Name, e.RetryAfter.Round(time.Second))
	}
	return fmt.Sprintf("circuit breaker %s is open", e.Name)
}

// IsCircuitOpen checks if an error is a circuit open rejection.
func IsCircuitOpen(err error) bool {
	var circuitErr *CircuitOpenError
	return errors.As(err, &circuitErr)
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable. The remote answered, so a
// permanent error does not count as a breaker failure either.
// Returns nil if err is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent checks if an error was marked with Permanent.
func IsPermanent(err error) bool {
	var permErr *permanentError
	return errors.As(err, &permErr)
}

package resilience

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy configures exponential backoff retries.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps each delay. Zero means uncapped.
	MaxDelay time.Duration
}

// Delay returns the wait before retry n (1-based).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	d := float64(p.BaseDelay) * math.Pow(2, float64(n-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = p.MaxDelay
	if exp.MaxInterval <= 0 {
		exp.MaxInterval = time.Duration(math.MaxInt64)
	}
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// RetryNotify is called before each retry with the 1-based retry number,
// the error that caused it and the delay about to be waited.
type RetryNotify func(retry int, err error, delay time.Duration)

// Retry runs op until it succeeds, fails permanently, or retries run out.
// Returns the last error. Cancellation of ctx stops further attempts.
func Retry(ctx context.Context, p RetryPolicy, op func(context.Context) error, notify RetryNotify) error {
	retry := 0
	operation := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) || IsCircuitOpen(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	onRetry := func(err error, delay time.Duration) {
		retry++
		if notify != nil {
			notify(retry, err, delay)
		}
	}

	return backoff.RetryNotify(operation, p.backOff(ctx), onRetry)
}

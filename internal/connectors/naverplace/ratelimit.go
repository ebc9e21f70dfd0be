package naverplace

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// DefaultRateLimitPause is used when a 429 carries no Retry-After.
const DefaultRateLimitPause = 5 * time.Second

// RateLimiter spaces requests to one host and honours 429 pauses.
type RateLimiter struct {
	mu          sync.Mutex
	bucket      *rate.Limiter
	pausedUntil time.Time
}

// NewRateLimiter allows one request per spacing. A zero spacing only
// enforces 429 pauses.
func NewRateLimiter(spacing time.Duration) *RateLimiter {
	limit := rate.Inf
	if spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, 1)}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	until := r.pausedUntil
	r.mu.Unlock()

	if d := time.Until(until); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.bucket.Wait(ctx)
}

// Pause holds every request for d.
func (r *RateLimiter) Pause(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(d); until.After(r.pausedUntil) {
		r.pausedUntil = until
	}
}

// PausedUntil returns the end of the current pause.
func (r *RateLimiter) PausedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pausedUntil
}

// ParseRetryAfter reads a Retry-After value in seconds.
func ParseRetryAfter(h http.Header) time.Duration {
	v := h.Get(HeaderRetryAfter)
	if v == "" {
		return DefaultRateLimitPause
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return DefaultRateLimitPause
	}
	return time.Duration(seconds) * time.Second
}

package naverplace

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError represents a non-success HTTP response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("naverplace: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Retryable reports whether the status is worth another attempt.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// BotDetectedError indicates the remote served a bot challenge instead
// of the requested page.
type BotDetectedError struct {
	URL       string
	Signature string
}

func (e *BotDetectedError) Error() string {
	return fmt.Sprintf("naverplace: bot detection triggered by %s (signature %q)", e.URL, e.Signature)
}

// RateLimitError indicates a 429 response.
type RateLimitError struct {
	URL        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("naverplace: rate limited on %s, retry after %s", e.URL, e.RetryAfter)
}

// QueryError indicates a structured query answered with an errors array.
type QueryError struct {
	Operation string
	Messages  []string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("naverplace: query %s failed: %s", e.Operation, strings.Join(e.Messages, "; "))
}

// IsNotFound checks if the error indicates a missing page.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsBotDetected checks if the error indicates a bot challenge.
func IsBotDetected(err error) bool {
	var botErr *BotDetectedError
	return errors.As(err, &botErr)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// IsQueryError checks if the error is a query-level failure.
func IsQueryError(err error) bool {
	var qErr *QueryError
	return errors.As(err, &qErr)
}

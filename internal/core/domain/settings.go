package domain

import (
	"fmt"
	"time"
)

// Search depth bounds. Ranks beyond a few hundred positions have no
// practical value and deep paging invites bot detection.
const (
	MinSearchPages = 1
	MaxSearchPages = 40
)

// Default search and batch settings.
const (
	DefaultMaxPages          = 10
	DefaultResultsPerPage    = 15
	DefaultFetchTimeout      = 30 * time.Second
	DefaultBatchConcurrency  = 3
	DefaultBatchWindowDelay  = 2 * time.Second
	DefaultMobileUserAgent   = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	DefaultFailureThreshold  = 5
	DefaultResetTimeout      = 60 * time.Second
	DefaultPageRetries       = 3
	DefaultPageRetryDelay    = 2 * time.Second
	DefaultRetryDelayCap     = 30 * time.Second
	DefaultQueryRetries      = 2
	DefaultQueryRetryDelay   = time.Second
	DefaultQueryTimeout      = 10 * time.Second
	DefaultMinRequestSpacing = 500 * time.Millisecond
)

// FetchMode selects the page fetch adapter.
type FetchMode string

// Available fetch modes.
const (
	// FetchModeHTTP fetches pages with a plain HTTP client.
	FetchModeHTTP FetchMode = "http"

	// FetchModeBrowser renders pages in a headless browser.
	FetchModeBrowser FetchMode = "browser"
)

// IsValid returns true if the fetch mode is recognised.
func (m FetchMode) IsValid() bool {
	return m == FetchModeHTTP || m == FetchModeBrowser
}

// SearchSettings configure rank searches.
type SearchSettings struct {
	MaxPages       int           `json:"maxPages"`
	ResultsPerPage int           `json:"resultsPerPage"`
	UserAgent      string        `json:"userAgent"`
	Timeout        time.Duration `json:"timeout"`
}

// DefaultSearchSettings returns the default search settings.
func DefaultSearchSettings() SearchSettings {
	return SearchSettings{
		MaxPages:       DefaultMaxPages,
		ResultsPerPage: DefaultResultsPerPage,
		UserAgent:      DefaultMobileUserAgent,
		Timeout:        DefaultFetchTimeout,
	}
}

// Validate rejects settings outside their bounds.
func (s SearchSettings) Validate() error {
	if s.MaxPages < MinSearchPages || s.MaxPages > MaxSearchPages {
		return fmt.Errorf("max pages %d outside [%d,%d]: %w",
			s.MaxPages, MinSearchPages, MaxSearchPages, ErrInvalidConfig)
	}
	if s.ResultsPerPage < 1 {
		return fmt.Errorf("results per page %d must be positive: %w", s.ResultsPerPage, ErrInvalidConfig)
	}
	return nil
}

// BreakerSettings configure the per-host circuit breaker.
type BreakerSettings struct {
	FailureThreshold int           `json:"failureThreshold"`
	ResetTimeout     time.Duration `json:"resetTimeout"`
}

// RetrySettings configure exponential backoff.
type RetrySettings struct {
	MaxRetries int           `json:"maxRetries"`
	BaseDelay  time.Duration `json:"baseDelay"`
	MaxDelay   time.Duration `json:"maxDelay"`
}

// BatchSettings configure batch rank searches.
type BatchSettings struct {
	Concurrency int           `json:"concurrency"`
	WindowDelay time.Duration `json:"windowDelay"`
}

// Settings is the complete application configuration.
type Settings struct {
	Search      SearchSettings    `json:"search"`
	Batch       BatchSettings     `json:"batch"`
	Breaker     BreakerSettings   `json:"breaker"`
	PageRetry   RetrySettings     `json:"pageRetry"`
	QueryRetry  RetrySettings     `json:"queryRetry"`
	FetchMode   FetchMode         `json:"fetchMode"`
	StoragePath string            `json:"storagePath"`
	VocabPath   string            `json:"vocabPath,omitempty"`
	GdidLookup  map[string]string `json:"gdidLookup,omitempty"`
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Search: DefaultSearchSettings(),
		Batch: BatchSettings{
			Concurrency: DefaultBatchConcurrency,
			WindowDelay: DefaultBatchWindowDelay,
		},
		Breaker: BreakerSettings{
			FailureThreshold: DefaultFailureThreshold,
			ResetTimeout:     DefaultResetTimeout,
		},
		PageRetry: RetrySettings{
			MaxRetries: DefaultPageRetries,
			BaseDelay:  DefaultPageRetryDelay,
			MaxDelay:   DefaultRetryDelayCap,
		},
		QueryRetry: RetrySettings{
			MaxRetries: DefaultQueryRetries,
			BaseDelay:  DefaultQueryRetryDelay,
			MaxDelay:   DefaultRetryDelayCap,
		},
		FetchMode: FetchModeHTTP,
	}
}

// Validate checks every section.
func (s Settings) Validate() error {
	if err := s.Search.Validate(); err != nil {
		return err
	}
	if s.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency %d must be positive: %w", s.Batch.Concurrency, ErrInvalidConfig)
	}
	if s.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker failure threshold %d must be positive: %w", s.Breaker.FailureThreshold, ErrInvalidConfig)
	}
	if !s.FetchMode.IsValid() {
		return fmt.Errorf("fetch mode %q: %w", s.FetchMode, ErrInvalidConfig)
	}
	return nil
}

package naverplace

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
	"github.com/custodia-labs/placerank/internal/logger"
	"github.com/custodia-labs/placerank/internal/metrics"
	"github.com/custodia-labs/placerank/internal/resilience"
)

// Fetch kinds used in logs and metrics.
const (
	KindSearch = "search"
	KindDetail = "detail"
	KindQuery  = "query"
)

// BotSignatures are page fragments that mark a bot challenge. They are
// only checked on pages without an embedded graph.
var BotSignatures = []string{"자동입력 방지", "captcha", "비정상적인 접근"}

// Client fetches search and detail pages through a PageFetcher, with
// request spacing, retries and the host's circuit breaker.
type Client struct {
	cfg     Config
	fetcher driven.PageFetcher
	exec    *resilience.Executor
	limiter *RateLimiter
}

// Verify interface compliance.
var (
	_ driven.SearchPageSource = (*Client)(nil)
	_ driven.DetailPageSource = (*Client)(nil)
)

// NewClient creates a page client. breaker may be nil to disable circuit
// breaking.
func NewClient(cfg Config, fetcher driven.PageFetcher, breaker *resilience.Breaker) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		fetcher: fetcher,
		exec:    resilience.NewExecutor(breaker, retryPolicy(cfg.PageRetry)).OnRetry(retryHook("page")),
		limiter: NewRateLimiter(cfg.MinRequestSpacing),
	}
}

// NewHostBreaker creates the circuit breaker for one remote host. State
// changes are logged and exported as metrics.
func NewHostBreaker(name string, s domain.BreakerSettings) *resilience.Breaker {
	return resilience.NewBreaker(resilience.BreakerConfig{
		Name:             name,
		FailureThreshold: s.FailureThreshold,
		ResetTimeout:     s.ResetTimeout,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
			metrics.SetBreakerState(name, int(to))
		},
	})
}

// Breaker returns the client's breaker, which may be nil.
func (c *Client) Breaker() *resilience.Breaker {
	return c.exec.Breaker()
}

// SearchPage implements driven.SearchPageSource.
func (c *Client) SearchPage(ctx context.Context, keyword string, page, resultsPerPage int) (*domain.Page, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, domain.ErrEmptyKeyword
	}
	u := SearchURL(c.cfg.BaseURL, c.cfg.BusinessType, keyword, page, resultsPerPage)
	logger.Debug("Fetching search page %d for %q: %s", page, keyword, u)
	return c.fetch(ctx, KindSearch, u)
}

// DetailPage implements driven.DetailPageSource.
func (c *Client) DetailPage(ctx context.Context, listingID string) (*domain.Page, error) {
	if strings.TrimSpace(listingID) == "" {
		return nil, domain.ErrEmptyTarget
	}
	u := DetailURL(c.cfg.BaseURL, c.cfg.BusinessType, listingID)
	logger.Debug("Fetching detail page for %s: %s", listingID, u)
	return c.fetch(ctx, KindDetail, u)
}

func (c *Client) fetch(ctx context.Context, kind, url string) (*domain.Page, error) {
	return resilience.Do(ctx, c.exec, func(ctx context.Context) (*domain.Page, error) {
		var page *domain.Page
		attempt := resilience.WithTimeout(c.cfg.PageTimeout, func(ctx context.Context) error {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}

			start := time.Now()
			p, err := c.fetcher.Fetch(ctx, url)
			if err == nil {
				err = c.checkPage(url, p)
			}
			metrics.ObserveFetch(kind, err, time.Since(start))
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		return page, attempt(ctx)
	})
}

// checkPage classifies a fetched page. Usable pages return nil.
func (c *Client) checkPage(url string, p *domain.Page) error {
	if p == nil {
		return fmt.Errorf("naverplace: fetcher returned no page for %s", url)
	}

	switch code := p.StatusCode; {
	case code == http.StatusTooManyRequests:
		c.limiter.Pause(DefaultRateLimitPause)
		return &RateLimitError{URL: url, RetryAfter: DefaultRateLimitPause}
	case code >= 400:
		apiErr := &APIError{StatusCode: code, Message: http.StatusText(code), URL: url}
		if !apiErr.Retryable() {
			return resilience.Permanent(apiErr)
		}
		return apiErr
	}

	if p.HasState() {
		return nil
	}
	if sig := DetectBot(p.HTML); sig != "" {
		logger.Warn("Bot detection triggered for %s", url)
		return &BotDetectedError{URL: url, Signature: sig}
	}
	return fmt.Errorf("%s: %w", url, domain.ErrNoEmbeddedState)
}

// DetectBot returns the first bot signature found in html, or "".
func DetectBot(html string) string {
	lower := strings.ToLower(html)
	for _, sig := range BotSignatures {
		if strings.Contains(lower, strings.ToLower(sig)) {
			return sig
		}
	}
	return ""
}

func retryPolicy(s domain.RetrySettings) resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxRetries: s.MaxRetries,
		BaseDelay:  s.BaseDelay,
		MaxDelay:   s.MaxDelay,
	}
}

func retryHook(kind string) resilience.RetryNotify {
	return func(retry int, err error, delay time.Duration) {
		logger.Warn("Retrying %s request (retry %d) in %s: %v", kind, retry, delay, err)
		metrics.FetchRetriesTotal.WithLabelValues(kind).Inc()
	}
}

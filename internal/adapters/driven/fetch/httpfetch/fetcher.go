// Package httpfetch fetches pages with net/http and extracts their
// embedded state with goquery.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/placerank/internal/adapters/driven/fetch"
	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
	"github.com/custodia-labs/placerank/internal/logger"
)

// Verify interface compliance.
var _ driven.PageFetcher = (*Fetcher)(nil)

// DefaultMaxBodyBytes caps how much of a page is read.
const DefaultMaxBodyBytes = 8 << 20

// Options configure a Fetcher. Zero fields take defaults.
type Options struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxBodyBytes   int64
}

// Fetcher is a driven.PageFetcher backed by net/http.
type Fetcher struct {
	client  *http.Client
	opts    Options
	headers http.Header
}

// New creates a fetcher. A nil client gets one with opts.Timeout.
func New(client *http.Client, opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = domain.DefaultMobileUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultFetchTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	headers := http.Header{}
	headers.Set("User-Agent", opts.UserAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", opts.AcceptLanguage)

	return &Fetcher{client: client, opts: opts, headers: headers}
}

// Fetch loads url. Any HTTP response is returned as a page, error statuses
// included; only transport failures are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range f.headers {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	page := &domain.Page{
		URL:        url,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}
	if resp.StatusCode < http.StatusBadRequest {
		page.State = fetch.ExtractState(page.HTML)
	}

	logger.Debug("GET %s: %d, %d bytes, state %t in %s",
		url, resp.StatusCode, len(body), page.HasState(), time.Since(start).Round(time.Millisecond))
	return page, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

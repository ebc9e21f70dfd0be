// Package browser fetches pages in headless Chrome through chromedp. It
// is the fallback for pages that only expose their state after scripts
// have run.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/custodia-labs/placerank/internal/adapters/driven/fetch"
	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
	"github.com/custodia-labs/placerank/internal/logger"
)

// Verify interface compliance.
var _ driven.PageFetcher = (*Fetcher)(nil)

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("browser: fetcher closed")

// stateScript serialises the embedded state, or yields "" when absent.
const stateScript = `(() => {
  const s = window.__APOLLO_STATE__ || window.__PLACE_STATE__;
  return s ? JSON.stringify(s) : "";
})()`

// Options configure the browser session. Zero fields take defaults.
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// Headful shows the browser window, for debugging.
	Headful bool

	// ExecPath overrides the Chrome binary.
	ExecPath string
}

// Fetcher is a driven.PageFetcher backed by one Chrome process. Each
// fetch runs in its own tab.
type Fetcher struct {
	opts        Options
	allocCtx    context.Context
	cancelAlloc context.CancelFunc

	// launch starts Chrome for a browser context.
	launch func(ctx context.Context) error

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	closed        bool
}

// New prepares the allocator. Chrome itself is launched on the first
// fetch and shared by every later one.
func New(opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = domain.DefaultMobileUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultFetchTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(390, 844),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return &Fetcher{
		opts:        opts,
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		launch: func(ctx context.Context) error {
			return chromedp.Run(ctx)
		},
	}
}

// browser returns the shared browser context, launching Chrome on first
// use. A failed launch is retried by the next fetch.
func (f *Fetcher) browser() (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	if f.browserCtx != nil {
		return f.browserCtx, nil
	}

	browserCtx, cancel := chromedp.NewContext(f.allocCtx)
	if err := f.launch(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	logger.Debug("Browser started")
	f.browserCtx, f.cancelBrowser = browserCtx, cancel
	return browserCtx, nil
}

// Fetch navigates a fresh tab to url and reads the rendered HTML and
// state. The tab is closed when ctx is done or the fetch returns.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.Page, error) {
	browserCtx, err := f.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.opts.Timeout)
	defer cancelTimeout()

	start := time.Now()
	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("navigate %s: %w", url, ctx.Err())
		}
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	page := &domain.Page{URL: url}
	if resp != nil {
		page.StatusCode = int(resp.Status)
	}

	var state string
	err = chromedp.Run(tabCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery),
		chromedp.Evaluate(stateScript, &state),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	if state != "" {
		page.State = []byte(state)
	} else {
		page.State = fetch.ExtractState(page.HTML)
	}

	logger.Debug("Browser %s: %d, state %t in %s",
		url, page.StatusCode, page.HasState(), time.Since(start).Round(time.Millisecond))
	return page, nil
}

// Close stops Chrome. Fetches after Close fail with ErrClosed.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.cancelBrowser != nil {
		f.cancelBrowser()
		f.browserCtx, f.cancelBrowser = nil, nil
	}
	f.cancelAlloc()
	return nil
}

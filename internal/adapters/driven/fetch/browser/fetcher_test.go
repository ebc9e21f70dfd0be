package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

func TestNew_Defaults(t *testing.T) {
	f := New(Options{})
	defer f.Close()

	assert.Equal(t, domain.DefaultMobileUserAgent, f.opts.UserAgent)
	assert.Equal(t, domain.DefaultFetchTimeout, f.opts.Timeout)
	assert.False(t, f.opts.Headful)
}

func TestFetcher_CloseIsIdempotent(t *testing.T) {
	f := New(Options{Timeout: time.Second})

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	page, err := f.Fetch(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, page)
}

func TestFetcher_SharesOneBrowser(t *testing.T) {
	f := New(Options{Timeout: time.Second})
	launches := 0
	f.launch = func(context.Context) error {
		launches++
		return nil
	}

	first, err := f.browser()
	require.NoError(t, err)
	second, err := f.browser()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, launches)

	require.NoError(t, f.Close())
	assert.Error(t, first.Err(), "closing the fetcher stops the browser")

	_, err = f.browser()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 1, launches)
}

func TestFetcher_LaunchFailureIsRetried(t *testing.T) {
	f := New(Options{Timeout: time.Second})
	defer f.Close()

	launchErr := errors.New("chrome not found")
	launches := 0
	f.launch = func(context.Context) error {
		launches++
		return launchErr
	}

	page, err := f.Fetch(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, launchErr)
	assert.Nil(t, page)

	_, err = f.Fetch(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, launchErr)
	assert.Equal(t, 2, launches)
}

// TestFetcher_Fetch drives a real Chrome and only runs when
// PLACERANK_BROWSER_TESTS is set.
func TestFetcher_Fetch(t *testing.T) {
	if os.Getenv("PLACERANK_BROWSER_TESTS") == "" {
		t.Skip("set PLACERANK_BROWSER_TESTS to run headless Chrome tests")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><p>place</p>
<script>window.__APOLLO_STATE__ = {"ROOT_QUERY": {"__typename": "Query"}};</script>
</body></html>`))
	}))
	defer srv.Close()

	f := New(Options{Timeout: 30 * time.Second})
	defer f.Close()

	page, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	browserCtx := f.browserCtx

	_, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Same(t, browserCtx, f.browserCtx)

	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.HTML, "place")
	require.True(t, page.HasState())
	assert.JSONEq(t, `{"ROOT_QUERY": {"__typename": "Query"}}`, string(page.State))
}

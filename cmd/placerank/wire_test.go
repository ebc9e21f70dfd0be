package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/placerank/internal/adapters/driven/fetch/browser"
	"github.com/custodia-labs/placerank/internal/adapters/driven/fetch/httpfetch"
	"github.com/custodia-labs/placerank/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/placerank/internal/adapters/driving/cli"
	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/services"
)

func newSettings(t *testing.T, values map[string]string) *services.SettingsService {
	t.Helper()
	svc := services.NewSettingsService(memory.NewConfigStore())
	for k, v := range values {
		require.NoError(t, svc.Set(k, v))
	}
	return svc
}

func TestEffectiveSettings(t *testing.T) {
	svc := newSettings(t, map[string]string{services.KeySearchMaxPages: "12"})

	settings, err := effectiveSettings(svc, cli.Options{})
	require.NoError(t, err)
	assert.Equal(t, 12, settings.Search.MaxPages)

	settings, err = effectiveSettings(svc, cli.Options{MaxPages: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, settings.Search.MaxPages)

	_, err = effectiveSettings(svc, cli.Options{MaxPages: 41})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNewPageFetcher(t *testing.T) {
	settings := domain.DefaultSettings()

	f := newPageFetcher(settings)
	assert.IsType(t, &httpfetch.Fetcher{}, f)
	require.NoError(t, f.Close())

	settings.FetchMode = domain.FetchModeBrowser
	f = newPageFetcher(settings)
	assert.IsType(t, &browser.Fetcher{}, f)
	require.NoError(t, f.Close())
}

func TestOpenStores(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		history, listings, closeFn, err := openStores("", true)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &memory.RankHistoryStore{}, history)
		assert.IsType(t, &memory.ListingStore{}, listings)
	})

	t.Run("sqlite", func(t *testing.T) {
		dir := t.TempDir()
		history, listings, closeFn, err := openStores(dir, false)
		require.NoError(t, err)
		defer closeFn()

		require.NoError(t, history.SaveRank(context.Background(), "", domain.RankResult{Keyword: "냉면", TargetID: "1"}))
		results, err := history.RankHistory(context.Background(), "1", "", 0)
		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.NotNil(t, listings)
		assert.FileExists(t, filepath.Join(dir, "placerank.db"))
	})
}

func TestLoadVocabulary(t *testing.T) {
	v, err := loadVocabulary("")
	require.NoError(t, err)
	assert.NotNil(t, v)

	_, err = loadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading vocabulary")
}

func TestWire_NoStore(t *testing.T) {
	svc := newSettings(t, nil)

	built, release, err := wire(context.Background(), svc, cli.Options{NoStore: true})

	require.NoError(t, err)
	require.NotNil(t, built)
	defer release()
	assert.NotNil(t, built.Rank)
	assert.NotNil(t, built.Listing)
	assert.IsType(t, &memory.RankHistoryStore{}, built.History)
}

func TestWire_InvalidSettings(t *testing.T) {
	svc := newSettings(t, nil)

	_, _, err := wire(context.Background(), svc, cli.Options{NoStore: true, MaxPages: -1})

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestServeMetrics(t *testing.T) {
	stop, err := serveMetrics(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	stop()

	_, err = serveMetrics(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestServeMetrics_ServesRegistry(t *testing.T) {
	addr := freeAddr(t)
	stop, err := serveMetrics(context.Background(), addr)
	require.NoError(t, err)
	defer stop()

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

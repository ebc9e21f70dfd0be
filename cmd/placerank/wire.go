package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/placerank/internal/adapters/driven/fetch/browser"
	"github.com/custodia-labs/placerank/internal/adapters/driven/fetch/httpfetch"
	"github.com/custodia-labs/placerank/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/placerank/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/placerank/internal/adapters/driving/cli"
	"github.com/custodia-labs/placerank/internal/classifier"
	"github.com/custodia-labs/placerank/internal/connectors/naverplace"
	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
	"github.com/custodia-labs/placerank/internal/core/ports/driving"
	"github.com/custodia-labs/placerank/internal/core/services"
	"github.com/custodia-labs/placerank/internal/logger"
	"github.com/custodia-labs/placerank/internal/metrics"
	"github.com/custodia-labs/placerank/internal/parsers/address"
	"github.com/custodia-labs/placerank/internal/parsers/gdid"
	"github.com/custodia-labs/placerank/internal/parsers/graph"
	"github.com/custodia-labs/placerank/internal/vocab"
)

// Breaker names, one per remote host.
const (
	pagesBreaker   = "m.place.naver.com"
	queriesBreaker = "pcmap-api.place.naver.com"
)

// cleanup runs release funcs in reverse order.
type cleanup []func()

func (c *cleanup) add(fn func()) { *c = append(*c, fn) }

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// wire builds the search services from the effective settings.
func wire(ctx context.Context, settingsSvc driving.SettingsService, opts cli.Options) (*cli.Services, func(), error) {
	settings, err := effectiveSettings(settingsSvc, opts)
	if err != nil {
		return nil, nil, err
	}

	vocabulary, err := loadVocabulary(settings.VocabPath)
	if err != nil {
		return nil, nil, err
	}

	var release cleanup

	fetcher := newPageFetcher(settings)
	release.add(func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("Closing fetcher: %v", err)
		}
	})

	cfg := naverplace.ConfigFromSettings(settings)
	client := naverplace.NewClient(cfg, fetcher, naverplace.NewHostBreaker(pagesBreaker, settings.Breaker))
	supplementary := naverplace.NewSupplementaryFetcher(cfg,
		&http.Client{Timeout: cfg.QueryTimeout + 5*time.Second},
		naverplace.NewHostBreaker(queriesBreaker, settings.Breaker))

	ids := gdid.NewParser(gdid.TableLookup{Table: settings.GdidLookup, Fallthrough: true})
	extractor := graph.NewExtractor(graph.Config{Vocabulary: vocabulary, Gdid: ids})

	rankSvc := services.NewRankService(client, extractor, settings.Search, settings.Batch)
	listingSvc := services.NewListingService(client, supplementary, extractor,
		address.NewParser(vocabulary), classifier.New(vocabulary))

	history, listings, closeStore, err := openStores(settings.StoragePath, opts.NoStore)
	if err != nil {
		release.run()
		return nil, nil, err
	}
	release.add(closeStore)
	rankSvc.SetHistoryStore(history)
	listingSvc.SetListingStore(listings)

	if opts.MetricsAddr != "" {
		stopMetrics, err := serveMetrics(ctx, opts.MetricsAddr)
		if err != nil {
			release.run()
			return nil, nil, err
		}
		release.add(stopMetrics)
	}

	logger.Debug("Fetch mode %s, depth %d pages, batch %d every %s",
		settings.FetchMode, settings.Search.MaxPages, settings.Batch.Concurrency, settings.Batch.WindowDelay)

	return &cli.Services{
		Rank:    rankSvc,
		Listing: listingSvc,
		History: history,
	}, release.run, nil
}

// effectiveSettings applies command line overrides to the stored settings.
func effectiveSettings(settingsSvc driving.SettingsService, opts cli.Options) (domain.Settings, error) {
	settings, err := settingsSvc.Get()
	if err != nil {
		return settings, fmt.Errorf("loading settings: %w", err)
	}
	if opts.MaxPages != 0 {
		settings.Search.MaxPages = opts.MaxPages
		if err := settings.Validate(); err != nil {
			return settings, err
		}
	}
	return settings, nil
}

func loadVocabulary(path string) (*vocab.Vocabulary, error) {
	if path == "" {
		return vocab.Default(), nil
	}
	v, err := vocab.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}
	logger.Debug("Vocabulary loaded from %s", path)
	return v, nil
}

func newPageFetcher(settings domain.Settings) driven.PageFetcher {
	if settings.FetchMode == domain.FetchModeBrowser {
		return browser.New(browser.Options{
			UserAgent: settings.Search.UserAgent,
			Timeout:   settings.Search.Timeout,
		})
	}
	return httpfetch.New(&http.Client{}, httpfetch.Options{
		UserAgent:      settings.Search.UserAgent,
		AcceptLanguage: naverplace.DefaultAcceptLanguage,
		Timeout:        settings.Search.Timeout,
	})
}

func openStores(
	dataDir string, noStore bool,
) (driven.RankHistoryStore, driven.ListingStore, func(), error) {
	if noStore {
		return memory.NewRankHistoryStore(), memory.NewListingStore(), func() {}, nil
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening history database: %w", err)
	}
	logger.Debug("History database: %s", store.Path())

	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Closing history database: %v", err)
		}
	}
	return store.RankHistoryStore(), store.ListingStore(), closeFn, nil
}

// serveMetrics exposes /metrics on addr until the returned func is called.
func serveMetrics(ctx context.Context, addr string) (func(), error) {
	metrics.Register()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server: %v", err)
		}
	}()
	logger.Info("Serving metrics on http://%s/metrics", ln.Addr())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

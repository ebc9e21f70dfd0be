// Package metrics holds the Prometheus collectors for page fetches, rank
// searches, listing crawls and circuit breakers.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "placerank"

// Fetch Prometheus metrics.
var (
	FetchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Total number of remote fetches",
		},
		[]string{"kind", "status"}, // kind: search/detail/query
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Remote fetch duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	FetchRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Total number of fetch retries",
		},
		[]string{"kind"},
	)
)

// Search and crawl Prometheus metrics.
var (
	RankSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_searches_total",
			Help:      "Total number of rank searches by outcome",
		},
		[]string{"outcome"}, // found/not_found/failed
	)

	RankPagesScanned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_pages_scanned",
			Help:      "Search pages fetched per rank search",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 40},
		},
	)

	ListingCrawlsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_crawls_total",
			Help:      "Total number of listing crawls",
		},
		[]string{"status"},
	)

	ListingCompleteness = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "listing_completeness",
			Help:      "Completeness score of crawled listings",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ParseGapsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_gaps_total",
			Help:      "Total number of absent or unusable graph fields",
		},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)
)

// Rank search outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

var registerOnce sync.Once

// Register registers every collector with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			FetchRequestsTotal,
			FetchDuration,
			FetchRetriesTotal,
			RankSearchesTotal,
			RankPagesScanned,
			ListingCrawlsTotal,
			ListingCompleteness,
			ParseGapsTotal,
			BreakerState,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(kind string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FetchRequestsTotal.WithLabelValues(kind, status).Inc()
	FetchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveRank records one finished rank search.
func ObserveRank(found bool, err error, pages int) {
	switch {
	case err != nil:
		RankSearchesTotal.WithLabelValues(OutcomeFailed).Inc()
	case found:
		RankSearchesTotal.WithLabelValues(OutcomeFound).Inc()
	default:
		RankSearchesTotal.WithLabelValues(OutcomeNotFound).Inc()
	}
	if pages > 0 {
		RankPagesScanned.Observe(float64(pages))
	}
}

// ObserveCrawl records one listing crawl.
func ObserveCrawl(err error, completeness, gaps int) {
	if err != nil {
		ListingCrawlsTotal.WithLabelValues("error").Inc()
		return
	}
	ListingCrawlsTotal.WithLabelValues("ok").Inc()
	ListingCompleteness.Observe(float64(completeness))
	ParseGapsTotal.Add(float64(gaps))
}

// SetBreakerState records a breaker's state as its numeric value.
func SetBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}

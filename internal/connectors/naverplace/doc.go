// Package naverplace implements the page and query sources for the
// mobile place site.
//
// # Architecture
//
// The package implements three driven ports:
//
//   - Client: [driven.SearchPageSource] and [driven.DetailPageSource] on top
//     of any [driven.PageFetcher] (plain HTTP or headless browser)
//   - SupplementaryFetcher: [driven.SupplementarySource] over the
//     structured query endpoint
//
// Each remote host gets its own circuit breaker. The breaker is created by
// the caller with NewHostBreaker and shared by every operation against that
// host, so a burst of failures in one batch keyword fails the others fast.
//
// # Pagination
//
// Search pages are addressed by a 1-based result offset:
//
//	start = (page-1)*resultsPerPage + 1
//
// resultsPerPage is the caller's assumption; the remote does not promise
// a fixed page length.
//
// # Rate Limiting
//
// Requests are spaced by a token bucket (one request per
// MinRequestSpacing). A 429 response pauses the limiter for the
// Retry-After period and is retried like any other transport failure.
//
// # Error Handling
//
//   - Transport errors, timeouts, 5xx and 429 responses: retried with
//     exponential backoff, counted by the breaker
//   - Bot detection pages: [BotDetectedError], retried
//   - Pages without an embedded graph: [domain.ErrNoEmbeddedState], retried
//   - 4xx responses other than 429: [APIError], not retried
//   - Query responses carrying an errors array: [QueryError], not retried;
//     the supplementary fetcher degrades to empty results
package naverplace

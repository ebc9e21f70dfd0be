// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - PageFetcher: Loads a URL and returns its HTML and embedded graph blob
//   - SearchPageSource: Fetches one search result page for a keyword
//   - DetailPageSource: Fetches a listing detail page
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SupplementarySource: Structured queries for voted keywords and review
//     statistics. Without it, merged records fall back to graph data.
//   - IDLookup: Cross-reference table for N2/N3 identifiers. Without it,
//     raw ids pass through unchanged.
//   - RankHistoryStore: Persists rank results.
//   - ListingStore: Persists crawled listing records.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven

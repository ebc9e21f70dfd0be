// Package domain defines the core business entities for placerank.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ListingRecord: A merged place listing with menus, reviews and features
//   - Gdid: A typed composite document identifier
//   - ParsedAddress: A geographic breakdown of a listing address
//   - ClassifiedKeywords: Keyword signals grouped into five taxonomies
//   - RankResult: The outcome of a keyword rank search
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

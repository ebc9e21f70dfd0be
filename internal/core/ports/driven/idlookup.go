package driven

import "github.com/custodia-labs/placerank/internal/core/domain"

// IDLookup maps N2/N3 identifiers to listing ids.
type IDLookup interface {
	// Lookup returns the listing id for rawID under scheme t.
	// ok is false when no mapping exists.
	Lookup(t domain.GdidType, rawID string) (listingID string, ok bool)
}

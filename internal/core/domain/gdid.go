package domain

// GdidType is the encoding scheme of a global document identifier.
type GdidType string

// Known identifier schemes.
const (
	// GdidN1 ids are listing ids as-is.
	GdidN1 GdidType = "N1"

	// GdidN2 ids need a cross-reference lookup to become listing ids.
	GdidN2 GdidType = "N2"

	// GdidN3 ids need a cross-reference lookup to become listing ids.
	GdidN3 GdidType = "N3"
)

// IsValid returns true if the identifier scheme is recognised.
func (t GdidType) IsValid() bool {
	switch t {
	case GdidN1, GdidN2, GdidN3:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t GdidType) String() string {
	return string(t)
}

// Gdid is a decoded "type:rawId" document identifier.
type Gdid struct {
	// Raw is the identifier exactly as received.
	Raw string `json:"raw"`

	// Type is the encoding scheme. Empty when the input was malformed.
	Type GdidType `json:"type,omitempty"`

	// RawID is the part after the separator, or the whole input when
	// it could not be split.
	RawID string `json:"rawId"`

	// ListingID is the resolved listing id. Empty when unresolved.
	ListingID string `json:"listingId,omitempty"`

	// Valid reports whether the identifier parsed and resolved.
	Valid bool `json:"isValid"`
}

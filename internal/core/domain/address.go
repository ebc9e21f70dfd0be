package domain

// AddressInput is the raw address triple exposed by a listing.
type AddressInput struct {
	Road     string `json:"road"`
	Informal string `json:"informal"`
	Detail   string `json:"detail"`
}

// IsEmpty returns true if neither the road nor the informal address is set.
func (a AddressInput) IsEmpty() bool {
	return a.Road == "" && a.Informal == ""
}

// ParsedAddress is the geographic breakdown of an address.
type ParsedAddress struct {
	Original       AddressInput `json:"original"`
	City           string       `json:"city"`
	District       string       `json:"district"`
	Neighborhood   string       `json:"neighborhood"`
	NearestStation string       `json:"nearestStation"`
	CommercialArea string       `json:"commercialArea"`
	Building       string       `json:"building"`

	// LocationKeywords are ordered commercial area, station, neighbourhood,
	// district, with suffix-stripped variants next to their source.
	LocationKeywords []string `json:"locationKeywords"`
}

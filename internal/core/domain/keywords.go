package domain

// Keyword taxonomy names.
const (
	TaxonomyCore      = "core"
	TaxonomyLocation  = "location"
	TaxonomyMenu      = "menu"
	TaxonomyAttribute = "attribute"
	TaxonomySentiment = "sentiment"
)

// SentimentBreakdown splits sentiment keywords by polarity.
type SentimentBreakdown struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// KeywordDetails is the per-subcategory breakdown behind the flat lists.
type KeywordDetails struct {
	// Attribute maps a sub-category (atmosphere, service, ...) to its matches.
	Attribute map[string][]string `json:"attributeBreakdown"`
	Sentiment SentimentBreakdown  `json:"sentimentBreakdown"`
}

// ClassifiedKeywords are keyword signals grouped into five taxonomies.
type ClassifiedKeywords struct {
	Core      []string       `json:"core"`
	Location  []string       `json:"location"`
	Menu      []string       `json:"menu"`
	Attribute []string       `json:"attribute"`
	Sentiment []string       `json:"sentiment"`
	Details   KeywordDetails `json:"details"`
}

// KeywordStats counts classified keywords.
type KeywordStats struct {
	Total           int            `json:"total"`
	ByCategory      map[string]int `json:"byCategory"`
	AttributeDetail map[string]int `json:"attributeDetail"`
	Positive        int            `json:"positive"`
	Negative        int            `json:"negative"`
}

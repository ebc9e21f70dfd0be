package graph

import (
	"github.com/custodia-labs/placerank/internal/parsers/category"
	"github.com/custodia-labs/placerank/internal/parsers/gdid"
	"github.com/custodia-labs/placerank/internal/vocab"
)

// Entity kinds the extractor selects.
const (
	KindListing        = "listing"
	KindMenu           = "menu"
	KindImage          = "image"
	KindBlogReview     = "blogReview"
	KindReviewStats    = "reviewStats"
	KindReviewSummary  = "reviewSummary"
	KindFacility       = "facility"
	KindPayment        = "payment"
	KindCategory       = "category"
	KindVisitorStats   = "visitorReviewStats"
	KindVisitorSummary = "visitorReviewSummary"
	KindBlogSummary    = "blogReviewSummary"
	KindBusinessHours  = "businessHours"
	KindSimilarPlaces  = "similarPlaces"
)

// Selectors maps entity kinds to their key selectors.
type Selectors map[string]Selector

// DefaultSelectors returns the selectors for the mobile place pages.
func DefaultSelectors() Selectors {
	return Selectors{
		KindListing:        {Prefixes: []string{"PlaceDetailBase:", "Place:"}},
		KindMenu:           {Prefixes: []string{"Menu:", "MenuItem:"}},
		KindImage:          {Prefixes: []string{"Image:", "Photo:"}},
		KindBlogReview:     {Prefixes: []string{"BlogReview:"}, Contains: []string{"blogReview"}},
		KindReviewStats:    {Prefixes: []string{"Review"}, Contains: []string{"reviewSummary"}},
		KindReviewSummary:  {Contains: []string{"reviewSummary", "ReviewSummary"}},
		KindFacility:       {Contains: []string{"facility", "Facility", "amenity"}},
		KindPayment:        {Contains: []string{"payment", "Payment"}},
		KindCategory:       {Prefixes: []string{"Category:"}},
		KindVisitorStats:   {Contains: []string{"VisitorReviewStat", "visitorReviewStats"}},
		KindVisitorSummary: {Contains: []string{"ReviewSummary"}, Exclude: []string{"Blog"}},
		KindBlogSummary:    {Contains: []string{"BlogReviewSummary", "UgcReviewSummary"}},
		KindBusinessHours:  {Contains: []string{"BusinessHours", "OperatingHours"}},
		KindSimilarPlaces:  {Prefixes: []string{"similarPlaces", "similarRestaurants", "relatedPlaces"}},
	}
}

// Limits bound extracted collections.
type Limits struct {
	MaxMenus         int
	MinBlogRunes     int
	MaxBlogReviews   int
	MaxSearchResults int
	MaxCompetitors   int
}

// DefaultLimits returns the standard limits.
func DefaultLimits() Limits {
	return Limits{
		MaxMenus:         50,
		MinBlogRunes:     1500,
		MaxBlogReviews:   10,
		MaxSearchResults: 0,
		MaxCompetitors:   10,
	}
}

// Config configures an Extractor. Zero fields take defaults.
type Config struct {
	Selectors  Selectors
	Limits     Limits
	Vocabulary *vocab.Vocabulary
	Gdid       *gdid.Parser
	Categories *category.Mapper
}

// Extractor decodes listing records, search pages and ranking features
// from entity graphs. Safe for concurrent use.
type Extractor struct {
	selectors  Selectors
	limits     Limits
	imageRules []vocab.ImageRule
	gdid       *gdid.Parser
	categories *category.Mapper
}

// NewExtractor creates an extractor.
func NewExtractor(cfg Config) *Extractor {
	selectors := DefaultSelectors()
	for kind, sel := range cfg.Selectors {
		selectors[kind] = sel
	}

	limits := DefaultLimits()
	if cfg.Limits.MaxMenus > 0 {
		limits.MaxMenus = cfg.Limits.MaxMenus
	}
	if cfg.Limits.MinBlogRunes > 0 {
		limits.MinBlogRunes = cfg.Limits.MinBlogRunes
	}
	if cfg.Limits.MaxBlogReviews > 0 {
		limits.MaxBlogReviews = cfg.Limits.MaxBlogReviews
	}
	if cfg.Limits.MaxSearchResults > 0 {
		limits.MaxSearchResults = cfg.Limits.MaxSearchResults
	}
	if cfg.Limits.MaxCompetitors > 0 {
		limits.MaxCompetitors = cfg.Limits.MaxCompetitors
	}

	v := cfg.Vocabulary
	if v == nil {
		v = vocab.Default()
	}
	parser := cfg.Gdid
	if parser == nil {
		parser = gdid.NewParser(nil)
	}
	categories := cfg.Categories
	if categories == nil {
		categories = category.NewMapper(v)
	}

	return &Extractor{
		selectors:  selectors,
		limits:     limits,
		imageRules: v.Images,
		gdid:       parser,
		categories: categories,
	}
}

// listingRecord finds the listing entity, preferring an exact id match.
func (e *Extractor) listingRecord(g *Graph, listingID string) (Record, bool) {
	sel := e.selectors[KindListing]
	if listingID != "" {
		for _, prefix := range sel.Prefixes {
			if rec, err := g.Record(prefix + listingID); err == nil {
				return rec, true
			}
		}
	}
	return g.First(sel)
}

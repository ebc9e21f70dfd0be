package domain

import "time"

// ImageCategory classifies a listing photo.
type ImageCategory string

// Image categories in classification priority order.
const (
	ImageExterior   ImageCategory = "exterior"
	ImageInterior   ImageCategory = "interior"
	ImageMenu       ImageCategory = "menu"
	ImageAtmosphere ImageCategory = "atmosphere"
	ImageOther      ImageCategory = "other"
)

// BasicInfo holds the identity and contact fields of a listing.
type BasicInfo struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Category      string       `json:"category"`
	Address       AddressInput `json:"address"`
	Phone         string       `json:"phone,omitempty"`
	Description   string       `json:"description,omitempty"`
	BusinessHours string       `json:"businessHours,omitempty"`
	Homepage      string       `json:"homepage,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
}

// Menu is a single menu item.
type Menu struct {
	Name        string `json:"name"`
	Price       int    `json:"price"`
	PriceText   string `json:"priceText,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Recommended bool   `json:"isRecommended"`
	Popular     bool   `json:"isPopular"`
}

// Image is a classified listing photo.
type Image struct {
	URL         string        `json:"url"`
	Category    ImageCategory `json:"category"`
	Description string        `json:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
}

// BlogReview is a long-form review.
type BlogReview struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
	URL     string `json:"url,omitempty"`
	Date    string `json:"date,omitempty"`
}

// ReviewStats aggregates review counters.
type ReviewStats struct {
	Total             int            `json:"total"`
	VisitorCount      int            `json:"visitorCount"`
	BlogCount         int            `json:"blogCount"`
	AverageScore      float64        `json:"averageScore"`
	ScoreDistribution map[string]int `json:"scoreDistribution,omitempty"`
}

// ReviewSummary holds the remote's own review keyword digest.
type ReviewSummary struct {
	Keywords []string `json:"keywords,omitempty"`
	Positive []string `json:"positive,omitempty"`
	Negative []string `json:"negative,omitempty"`
}

// Reviews groups review stats, summary and long-form reviews.
type Reviews struct {
	Stats       ReviewStats   `json:"stats"`
	Summary     ReviewSummary `json:"summary"`
	BlogReviews []BlogReview  `json:"blogReviews,omitempty"`
}

// Facility is an amenity offered by a listing.
type Facility struct {
	Name        string `json:"name"`
	Available   bool   `json:"available"`
	Description string `json:"description,omitempty"`
}

// VotedKeyword is a visitor-voted keyword with its tally.
type VotedKeyword struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
	IconURL string `json:"iconUrl,omitempty"`
}

// VisitPurpose is a visit category with its tally.
type VisitPurpose struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// VotedKeywordTally is the supplementary voted keyword result.
type VotedKeywordTally struct {
	VotedKeywords []VotedKeyword `json:"votedKeywords"`
	VisitPurposes []VisitPurpose `json:"visitPurposes"`
}

// IsEmpty returns true if neither list has entries.
func (v VotedKeywordTally) IsEmpty() bool {
	return len(v.VotedKeywords) == 0 && len(v.VisitPurposes) == 0
}

// VisitorReviewStats are the visitor review counters used as a ranking signal.
type VisitorReviewStats struct {
	Total             int            `json:"total"`
	PhotoCount        int            `json:"photoCount"`
	ContentCount      int            `json:"contentCount"`
	AverageScore      float64        `json:"averageScore"`
	ScoreDistribution map[string]int `json:"scoreDistribution,omitempty"`
}

// OrderOptions describe how a listing takes orders.
type OrderOptions struct {
	TableOrder bool     `json:"tableOrder"`
	Pickup     bool     `json:"pickup"`
	Delivery   bool     `json:"delivery"`
	BookingID  string   `json:"bookingId,omitempty"`
	Options    []string `json:"options,omitempty"`
}

// HasAny returns true if table order, pickup or booking is available.
func (o OrderOptions) HasAny() bool {
	return o.TableOrder || o.Pickup || o.BookingID != ""
}

// TimeRange is an HH:MM span.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// OperationTime is the detailed opening-time information.
type OperationTime struct {
	BreakTime *TimeRange `json:"breakTime,omitempty"`
	LastOrder string     `json:"lastOrder,omitempty"`
	Holidays  []string   `json:"holidays,omitempty"`
}

// HasDetail returns true if break time or last order is known.
func (o OperationTime) HasDetail() bool {
	return o.BreakTime != nil || o.LastOrder != ""
}

// CategoryType splits categories into service and restaurant listings.
type CategoryType string

// Category types.
const (
	CategoryTypeService    CategoryType = "TYPE_A"
	CategoryTypeRestaurant CategoryType = "TYPE_B"
)

// CategoryMatch is a listing's category string mapped onto the category
// table.
type CategoryMatch struct {
	Original  string       `json:"original"`
	Codes     []string     `json:"codes"`
	Hierarchy string       `json:"hierarchy,omitempty"`
	Type      CategoryType `json:"type"`
}

// Competitor is a similar listing recommended on a listing's home page.
type Competitor struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
	Distance    string  `json:"distance,omitempty"`
}

// RankingFeatures are the signals the remote is believed to rank by.
type RankingFeatures struct {
	CategoryCodes       []string           `json:"categoryCodes"`
	Category            CategoryMatch      `json:"category"`
	Gdid                Gdid               `json:"gdid"`
	VotedKeywords       []VotedKeyword     `json:"votedKeywords"`
	VisitCategories     []VisitPurpose     `json:"visitCategories"`
	VisitorReviewStats  VisitorReviewStats `json:"visitorReviewStats"`
	BlogCafeReviewCount int                `json:"blogCafeReviewCount"`
	OrderOptions        OrderOptions       `json:"orderOptions"`
	OperationTime       OperationTime      `json:"operationTime"`
}

// SupplementaryData is what the structured queries returned.
// ReviewStats is nil when the query failed.
type SupplementaryData struct {
	Voted       VotedKeywordTally `json:"voted"`
	ReviewStats *ReviewStats      `json:"reviewStats,omitempty"`
}

// ListingRecord is the merged result of a listing crawl.
type ListingRecord struct {
	ID           string             `json:"id"`
	Basic        BasicInfo          `json:"basic"`
	Menus        []Menu             `json:"menus"`
	Images       []Image            `json:"images"`
	Reviews      Reviews            `json:"reviews"`
	Facilities   []Facility         `json:"facilities"`
	Payments     []string           `json:"payments"`
	Competitors  []Competitor       `json:"competitors"`
	Ranking      RankingFeatures    `json:"ranking"`
	Address      ParsedAddress      `json:"address"`
	Keywords     ClassifiedKeywords `json:"keywords"`
	Completeness int                `json:"completeness"`
	CrawledAt    time.Time          `json:"crawledAt"`
}

// ValidationReport separates hard errors from soft warnings.
// A record with errors is still usable but flagged.
type ValidationReport struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// IsValid returns true if there are no hard errors.
func (r ValidationReport) IsValid() bool {
	return len(r.Errors) == 0
}

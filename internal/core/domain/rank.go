package domain

import "time"

// SearchItem is one entry of a search result page, in page order.
type SearchItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
	Address     string  `json:"address"`

	// Position is the 1-based slot on its page.
	Position int `json:"position"`
}

// SearchPage is the ordered result list of one search page.
type SearchPage struct {
	Items []SearchItem `json:"items"`

	// Total is the remote's reported result count, 0 when absent.
	Total int `json:"total"`
}

// RankResult is the outcome of a rank search for one keyword.
// A nil Rank means the target was not found within the search depth,
// which is not an error.
type RankResult struct {
	Keyword            string    `json:"keyword"`
	TargetID           string    `json:"targetId"`
	Rank               *int      `json:"rank"`
	Page               int       `json:"page,omitempty"`
	Position           int       `json:"position,omitempty"`
	TotalResultsOnPage int       `json:"totalResultsOnPage,omitempty"`
	TotalResults       int       `json:"totalResults,omitempty"`
	PagesScanned       int       `json:"pagesScanned"`
	ListingName        string    `json:"listingName,omitempty"`
	Category           string    `json:"category,omitempty"`
	Rating             float64   `json:"rating,omitempty"`
	ReviewCount        int       `json:"reviewCount,omitempty"`
	FoundAt            time.Time `json:"foundAt"`
}

// Found returns true if the target was located.
func (r RankResult) Found() bool {
	return r.Rank != nil
}

// GlobalRank computes the 1-based rank across pages.
func GlobalRank(page, resultsPerPage, position int) int {
	return (page-1)*resultsPerPage + position
}

// RankOutcome is one keyword's entry in a batch. Exactly one of
// Result and Err is set.
type RankOutcome struct {
	Keyword string      `json:"keyword"`
	Result  *RankResult `json:"result,omitempty"`
	Err     error       `json:"-"`
	Error   string      `json:"error,omitempty"`
}

// Failed returns true if the keyword search errored.
func (o RankOutcome) Failed() bool {
	return o.Err != nil
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total    int `json:"total"`
	Found    int `json:"found"`
	NotFound int `json:"notFound"`
	Failed   int `json:"failed"`
}

// Summarize derives a BatchSummary from outcomes.
func Summarize(outcomes []RankOutcome) BatchSummary {
	s := BatchSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Failed() || o.Result == nil:
			s.Failed++
		case o.Result.Found():
			s.Found++
		default:
			s.NotFound++
		}
	}
	return s
}

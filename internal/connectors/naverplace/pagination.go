package naverplace

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// StartOffset returns the 1-based result offset of page.
func StartOffset(page, resultsPerPage int) int {
	return (page-1)*resultsPerPage + 1
}

// SearchURL builds the search list URL for keyword and page.
func SearchURL(baseURL, businessType, keyword string, page, resultsPerPage int) string {
	q := url.Values{}
	q.Set("query", keyword)
	q.Set("start", strconv.Itoa(StartOffset(page, resultsPerPage)))
	return fmt.Sprintf("%s/%s/list?%s", strings.TrimRight(baseURL, "/"), businessType, q.Encode())
}

// DetailURL builds the home page URL of a listing.
func DetailURL(baseURL, businessType, listingID string) string {
	return fmt.Sprintf("%s/%s/%s/home", strings.TrimRight(baseURL, "/"), businessType, url.PathEscape(listingID))
}

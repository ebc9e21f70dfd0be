package domain

// Page is a fetched remote page. State is the raw embedded entity
// graph blob and is empty when the page did not carry one.
type Page struct {
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`
	HTML       string `json:"-"`
	State      []byte `json:"-"`
}

// HasState returns true if the page carried an embedded graph.
func (p *Page) HasState() bool {
	return p != nil && len(p.State) > 0
}

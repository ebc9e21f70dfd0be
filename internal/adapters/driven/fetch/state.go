package fetch

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StateMarkers are the script assignments that carry the entity graph,
// tried in order.
var StateMarkers = []string{
	"window.__APOLLO_STATE__",
	"window.__PLACE_STATE__",
}

// ExtractState returns the embedded entity graph of html, or nil when the
// page does not carry one. Only inline scripts are inspected.
func ExtractState(html string) []byte {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var state []byte
	doc.Find("script:not([src])").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		state = StateFromScript(sel.Text())
		return state == nil
	})
	return state
}

// StateFromScript finds a marker assignment in script and decodes the
// JSON object that follows it. The object ends where the JSON value ends,
// so trailing statements are ignored.
func StateFromScript(script string) []byte {
	for _, marker := range StateMarkers {
		idx := strings.Index(script, marker)
		if idx < 0 {
			continue
		}
		rest := script[idx+len(marker):]
		brace := strings.IndexByte(rest, '{')
		if brace < 0 || strings.TrimSpace(strings.TrimLeft(rest[:brace], " =")) != "" {
			continue
		}

		var raw json.RawMessage
		dec := json.NewDecoder(strings.NewReader(rest[brace:]))
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if len(bytes.TrimSpace(raw)) <= 2 {
			return nil
		}
		return raw
	}
	return nil
}

package graph

import (
	"github.com/custodia-labs/placerank/internal/core/domain"
)

// ExtractCompetitors decodes the similar listings the home page
// recommends. The list is looked up on the listing entity first, then on
// the query root in document order. Advertised slots, the listing itself
// and repeated ids are dropped; the result is capped at MaxCompetitors.
func (e *Extractor) ExtractCompetitors(g *Graph, listingID string) []domain.Competitor {
	out := []domain.Competitor{}

	refs := e.similarPlaceRefs(g, listingID)
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if len(out) >= e.limits.MaxCompetitors {
			break
		}
		rec, err := g.Resolve(ref)
		if err != nil {
			continue
		}
		if rec.AnyTrue("isAd", "isAdvertisement") || rec.FirstString("adId") != "" {
			continue
		}
		id := FirstNonEmpty(rec.FirstString("id", "placeId", "businessId"), idFromKey(rec.Key))
		if id == "" || id == listingID || seen[id] {
			continue
		}
		name := rec.FirstString("name", "title")
		if name == "" {
			continue
		}
		seen[id] = true
		out = append(out, domain.Competitor{
			ID:          id,
			Name:        name,
			Category:    rec.FirstString("category", "categoryName"),
			Rating:      rec.FirstFloat("visitorReviewScore", "rating"),
			ReviewCount: rec.FirstInt("visitorReviewCount", "reviewCount"),
			Distance:    rec.FirstString("distance"),
		})
	}
	return out
}

func idFromKey(key string) string {
	if key == "" {
		return ""
	}
	return Record{Key: key}.ID()
}

// similarPlaceRefs returns the raw items of the first similar places list.
func (e *Extractor) similarPlaceRefs(g *Graph, listingID string) []any {
	sel := e.selectors[KindSimilarPlaces]

	if place, ok := e.listingRecord(g, listingID); ok {
		for _, name := range place.FieldNames() {
			if !sel.Match(name) {
				continue
			}
			if items := listItems(g, place.fields[name]); len(items) > 0 {
				return items
			}
		}
	}

	root, err := g.Root()
	if err != nil {
		return nil
	}
	for _, name := range g.RootFields() {
		if !sel.Match(name) {
			continue
		}
		if items := listItems(g, root.fields[name]); len(items) > 0 {
			return items
		}
	}
	return nil
}

// listItems accepts a reference array, or a list object (inline or
// referenced) holding one under the schema's items field.
func listItems(g *Graph, v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	list, err := g.Resolve(v)
	if err != nil {
		return nil
	}
	raw, ok := list.Raw(g.schema.ItemsField)
	if !ok {
		return nil
	}
	arr, _ := raw.([]any)
	return arr
}

package graph

import (
	"strings"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

// SearchList returns the root field holding the search result list. Root
// fields are matched against the schema's list prefixes; when several
// match, the first one in document order wins.
func (g *Graph) SearchList() (Record, error) {
	root, err := g.Root()
	if err != nil {
		return Record{}, err
	}

	name, ok := g.searchListField()
	if !ok {
		return Record{}, gap(root.Key, fieldList(g.schema.SearchListPrefixes), GapMissing)
	}

	v, ok := root.fields[name]
	if !ok || v == nil {
		return Record{}, gap(root.Key, name, GapMissing)
	}
	list, err := g.Resolve(v)
	if err != nil {
		return Record{}, err
	}
	if list.Key == "" {
		list.Key = root.Key + "." + name
	}
	return list, nil
}

func (g *Graph) searchListField() (string, bool) {
	for _, name := range g.RootFields() {
		for _, prefix := range g.schema.SearchListPrefixes {
			if strings.HasPrefix(name, prefix) {
				return name, true
			}
		}
	}
	return "", false
}

// ParseSearchPage decodes the ordered result list. Position is the slot index
// among all references, so an unresolvable slot leaves a hole instead of
// shifting later items up. A page without a list yields no items and a
// gap; that is how the end of results looks.
func (e *Extractor) ParseSearchPage(g *Graph) (domain.SearchPage, Gaps) {
	var gaps Gaps
	page := domain.SearchPage{Items: []domain.SearchItem{}}

	list, err := g.SearchList()
	if err != nil {
		gaps.Note(err)
		return page, gaps
	}
	page.Total = list.FirstInt(g.schema.TotalField)

	raw, ok := list.Raw(g.schema.ItemsField)
	if !ok {
		gaps.Note(gap(list.Key, g.schema.ItemsField, GapMissing))
		return page, gaps
	}
	refs, ok := raw.([]any)
	if !ok {
		gaps.Note(gap(list.Key, g.schema.ItemsField, GapType))
		return page, gaps
	}

	for i, ref := range refs {
		if e.limits.MaxSearchResults > 0 && len(page.Items) >= e.limits.MaxSearchResults {
			break
		}
		rec, err := g.Resolve(ref)
		if err != nil {
			gaps.Note(err)
			continue
		}
		item, ok := decodeSearchItem(rec, &gaps)
		if !ok {
			continue
		}
		item.Position = i + 1
		page.Items = append(page.Items, item)
	}
	return page, gaps
}

func decodeSearchItem(rec Record, gaps *Gaps) (domain.SearchItem, bool) {
	id, err := rec.LookupString("id")
	if err != nil {
		gaps.Note(err)
		return domain.SearchItem{}, false
	}
	return domain.SearchItem{
		ID:          id,
		Name:        rec.FirstString("name"),
		Category:    rec.FirstString("category", "categoryName"),
		Rating:      rec.FirstFloat("visitorReviewScore", "rating"),
		ReviewCount: rec.FirstInt("visitorReviewCount", "reviewCount"),
		Address:     rec.FirstString("roadAddress", "address"),
	}, true
}

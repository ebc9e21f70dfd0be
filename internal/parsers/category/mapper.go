// Package category maps listing category names onto the category table:
// codes, hierarchy paths and the service/restaurant split.
package category

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/vocab"
)

// DefaultSearchLimit caps Search when no limit is given.
const DefaultSearchLimit = 20

// codeSuffix strips "(KR01)" style codes from category names.
var codeSuffix = regexp.MustCompile(`\([^)]*\)`)

// Mapper looks categories up by name or id. It is read-only after
// construction and safe for concurrent use.
type Mapper struct {
	entries []vocab.Category
	byName  map[string]vocab.Category
	byID    map[string]vocab.Category
	markers []string
}

// NewMapper indexes the category table. A nil vocabulary uses
// vocab.Default.
func NewMapper(v *vocab.Vocabulary) *Mapper {
	if v == nil {
		v = vocab.Default()
	}
	m := &Mapper{
		entries: v.Categories.Entries,
		byName:  make(map[string]vocab.Category, len(v.Categories.Entries)),
		byID:    make(map[string]vocab.Category, len(v.Categories.Entries)),
		markers: v.Categories.RestaurantMarkers,
	}
	for _, c := range m.entries {
		if _, dup := m.byName[normalize(c.Name)]; !dup {
			m.byName[normalize(c.Name)] = c
		}
		m.byID[c.ID] = c
	}
	return m
}

// Len returns the number of table entries.
func (m *Mapper) Len() int {
	return len(m.entries)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FindByName returns the entry named name. Without an exact match, the
// first entry whose name contains name, or is contained in it, wins.
func (m *Mapper) FindByName(name string) (vocab.Category, bool) {
	n := normalize(name)
	if n == "" {
		return vocab.Category{}, false
	}
	if c, ok := m.byName[n]; ok {
		return c, true
	}
	for _, c := range m.entries {
		cn := normalize(c.Name)
		if strings.Contains(cn, n) || strings.Contains(n, cn) {
			return c, true
		}
	}
	return vocab.Category{}, false
}

// FindByID returns the entry with id.
func (m *Mapper) FindByID(id string) (vocab.Category, bool) {
	c, ok := m.byID[id]
	return c, ok
}

// FindMultiple maps each name, dropping misses and repeated entries.
func (m *Mapper) FindMultiple(names []string) []vocab.Category {
	var out []vocab.Category
	seen := make(map[string]bool)
	for _, name := range names {
		c, ok := m.FindByName(name)
		if !ok || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// Names splits a listing category string into lookup names. Entries are
// comma separated; of a "음식점>한식" path only the last segment is kept.
func Names(category string) []string {
	var names []string
	for _, part := range strings.Split(category, ",") {
		if i := strings.LastIndex(part, ">"); i >= 0 {
			part = part[i+1:]
		}
		part = strings.TrimSpace(codeSuffix.ReplaceAllString(part, ""))
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}

// Type classifies a hierarchy path. Paths holding a restaurant marker
// are restaurants; everything else, including "", is a service.
func (m *Mapper) Type(hierarchy string) domain.CategoryType {
	for _, marker := range m.markers {
		if marker != "" && strings.Contains(hierarchy, marker) {
			return domain.CategoryTypeRestaurant
		}
	}
	return domain.CategoryTypeService
}

// Process maps a listing category string. The hierarchy is the longest
// path among the matches.
func (m *Mapper) Process(category string) domain.CategoryMatch {
	matches := m.FindMultiple(Names(category))

	out := domain.CategoryMatch{
		Original: category,
		Codes:    make([]string, 0, len(matches)),
	}
	for _, c := range matches {
		out.Codes = append(out.Codes, c.ID)
		if len(c.Path) > len(out.Hierarchy) {
			out.Hierarchy = c.Path
		}
	}
	out.Type = m.Type(out.Hierarchy)
	return out
}

// Search returns entries whose name or path contains keyword, in table
// order. A limit of zero or less uses DefaultSearchLimit.
func (m *Mapper) Search(keyword string, limit int) []vocab.Category {
	k := normalize(keyword)
	if k == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	var out []vocab.Category
	for _, c := range m.entries {
		if strings.Contains(normalize(c.Name), k) || strings.Contains(normalize(c.Path), k) {
			out = append(out, c)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Package address decomposes Korean addresses into a geographic
// hierarchy and derives location keywords from it.
package address

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/vocab"
)

// Parser extracts city, district, neighbourhood, nearest station,
// commercial area and building from an address. It holds only
// compiled tables and is safe for concurrent use.
type Parser struct {
	tables vocab.Address

	city         *regexp.Regexp
	district     *regexp.Regexp
	neighborhood *regexp.Regexp
	station      *regexp.Regexp
	building     *regexp.Regexp
	neighSuffix  *regexp.Regexp
	metropolitan map[string]bool
}

// NewParser compiles the address tables. A nil table uses vocab.Default.
func NewParser(v *vocab.Vocabulary) *Parser {
	if v == nil {
		v = vocab.Default()
	}
	t := v.Address

	metro := make(map[string]bool, len(t.MetropolitanCities))
	for _, c := range t.MetropolitanCities {
		metro[c] = true
	}

	var building *regexp.Regexp
	if suffixes := alternation(t.BuildingSuffixes); suffixes != "" {
		building = regexp.MustCompile(`([\w가-힣]+)(` + suffixes + `)`)
	}

	return &Parser{
		tables:       t,
		city:         regexp.MustCompile(`^(` + alternation(t.Provinces) + `)(` + alternation(t.ProvinceSuffixes) + `)?`),
		district:     regexp.MustCompile(`([\w가-힣]+)(` + alternation(t.DistrictSuffixes) + `)`),
		neighborhood: regexp.MustCompile(`([\w가-힣]+?)(` + alternation(t.NeighborhoodSuffixes) + `)`),
		station:      regexp.MustCompile(`[\w가-힣]+` + regexp.QuoteMeta(t.StationSuffix)),
		building:     building,
		neighSuffix:  regexp.MustCompile(`(` + alternation(t.NeighborhoodSuffixes) + `)$`),
		metropolitan: metro,
	}
}

// alternation joins quoted literals into a regexp alternation.
func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	return strings.Join(quoted, "|")
}

// Parse decomposes in. The road address is preferred over the informal
// one. When both are absent the result is empty.
func (p *Parser) Parse(in domain.AddressInput) domain.ParsedAddress {
	if in.IsEmpty() {
		return domain.ParsedAddress{LocationKeywords: []string{}}
	}

	full := in.Road
	if full == "" {
		full = in.Informal
	}
	full = strings.TrimSpace(full)
	withDetail := strings.TrimSpace(full + " " + in.Detail)

	out := domain.ParsedAddress{Original: in}

	rest := full
	if m := p.city.FindStringSubmatchIndex(full); m != nil {
		out.City = p.canonicalCity(full[m[2]:m[3]], submatch(full, m, 2))
		rest = full[m[1]:]
	}

	if m := p.district.FindStringIndex(rest); m != nil {
		out.District = rest[m[0]:m[1]]
		rest = rest[m[1]:]
	}

	if m := p.neighborhood.FindString(rest); m != "" {
		out.Neighborhood = m
	}

	out.NearestStation = p.nearestStation(withDetail)
	out.CommercialArea = firstContained(withDetail, p.tables.CommercialAreas)
	if p.building != nil {
		out.Building = p.building.FindString(withDetail)
	}
	out.LocationKeywords = p.locationKeywords(out)
	return out
}

func submatch(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return s[m[2*group]:m[2*group+1]]
}

func (p *Parser) canonicalCity(city, suffix string) string {
	if c, ok := p.tables.CanonicalCities[city]; ok {
		return c
	}
	if p.metropolitan[city] {
		return city + p.tables.MetropolitanSuffix
	}
	return city + suffix
}

func (p *Parser) nearestStation(text string) string {
	if s := firstContained(text, p.tables.Stations); s != "" {
		return s
	}
	return p.station.FindString(text)
}

func firstContained(text string, candidates []string) string {
	for _, c := range candidates {
		if c != "" && strings.Contains(text, c) {
			return c
		}
	}
	return ""
}

// locationKeywords orders area, station, neighbourhood and district with
// suffix-stripped variants next to their source, deduplicated.
func (p *Parser) locationKeywords(a domain.ParsedAddress) []string {
	var kws []string
	if a.CommercialArea != "" {
		kws = append(kws, a.CommercialArea)
	}
	if a.NearestStation != "" {
		kws = append(kws, a.NearestStation)
		if bare := strings.TrimSuffix(a.NearestStation, p.tables.StationSuffix); bare != "" {
			kws = append(kws, bare)
		}
	}
	if a.Neighborhood != "" {
		kws = append(kws, a.Neighborhood)
		if bare := p.neighSuffix.ReplaceAllString(a.Neighborhood, ""); bare != "" {
			kws = append(kws, bare)
		}
	}
	if a.District != "" {
		kws = append(kws, a.District)
	}
	return dedupe(kws)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^\w가-힣\s]`)
)

// Normalize collapses whitespace, drops punctuation and lowercases an
// address for comparison.
func Normalize(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = nonWord.ReplaceAllString(s, "")
	return strings.ToLower(strings.TrimSpace(s))
}

// Similarity returns the fraction of city, district, neighbourhood,
// station and area fields that agree, counting only fields set on at
// least one side. Two empty addresses have similarity 0.
func Similarity(a, b domain.ParsedAddress) float64 {
	pairs := [][2]string{
		{a.City, b.City},
		{a.District, b.District},
		{a.Neighborhood, b.Neighborhood},
		{a.NearestStation, b.NearestStation},
		{a.CommercialArea, b.CommercialArea},
	}

	total, matches := 0, 0
	for _, pair := range pairs {
		if pair[0] == "" && pair[1] == "" {
			continue
		}
		total++
		if pair[0] == pair[1] {
			matches++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}

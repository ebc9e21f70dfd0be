package graph

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

var (
	categoryCodePattern = regexp.MustCompile(`\(([A-Z0-9]+)\)`)
	timeRangePattern    = regexp.MustCompile(`(\d{1,2}:\d{2})\s*[~-]\s*(\d{1,2}:\d{2})`)
)

// ExtractRankingFeatures decodes the ranking signals embedded in the
// detail page. Voted keywords and visit categories are read from the
// visitor review stats entities when the page embeds them. Category codes
// come from the page; when it carries none, the category table supplies
// them.
func (e *Extractor) ExtractRankingFeatures(g *Graph, listingID string) domain.RankingFeatures {
	place, hasPlace := e.listingRecord(g, listingID)

	f := domain.RankingFeatures{
		CategoryCodes:   e.categoryCodes(g, place, hasPlace),
		VotedKeywords:   []domain.VotedKeyword{},
		VisitCategories: []domain.VisitPurpose{},
	}
	for _, rec := range g.Select(e.selectors[KindVisitorStats]) {
		if len(f.VotedKeywords) == 0 {
			f.VotedKeywords = votedKeywords(g, rec)
		}
		if len(f.VisitCategories) == 0 {
			f.VisitCategories = visitCategories(g, rec)
		}
	}
	if hasPlace {
		f.Gdid = e.gdid.Parse(place.FirstString("gdid", "globalDocId"))
		f.OrderOptions = orderOptions(place)
		f.Category = e.categories.Process(place.FirstString("category", "categoryName"))
	} else {
		f.Category = e.categories.Process("")
	}
	if len(f.CategoryCodes) == 0 {
		f.CategoryCodes = append(f.CategoryCodes, f.Category.Codes...)
	}
	f.VisitorReviewStats = e.visitorStats(g)
	f.BlogCafeReviewCount = e.blogCafeCount(g, place, hasPlace)
	f.OperationTime = e.operationTime(g, place, hasPlace)
	return f
}

func (e *Extractor) categoryCodes(g *Graph, place Record, hasPlace bool) []string {
	var codes []string
	seen := make(map[string]bool)
	add := func(code string) {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		codes = append(codes, code)
	}

	if hasPlace {
		if list := place.FirstStrings("categoryCodeList", "categoryCodes"); list != nil {
			for _, c := range list {
				add(c)
			}
		} else {
			category := place.FirstString("category", "categoryName")
			for _, m := range categoryCodePattern.FindAllStringSubmatch(category, -1) {
				add(m[1])
			}
		}
	}
	for _, rec := range g.Select(e.selectors[KindCategory]) {
		add(rec.FirstString("code"))
	}
	if codes == nil {
		return []string{}
	}
	return codes
}

// resolveAll resolves an array field whose items are inline objects or
// references.
func resolveAll(g *Graph, rec Record, fields ...string) []Record {
	for _, f := range fields {
		raw, ok := rec.Raw(f)
		if !ok {
			continue
		}
		arr, ok := raw.([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		out := make([]Record, 0, len(arr))
		for _, item := range arr {
			if r, err := g.Resolve(item); err == nil {
				out = append(out, r)
			}
		}
		return out
	}
	return nil
}

func votedKeywords(g *Graph, rec Record) []domain.VotedKeyword {
	out := []domain.VotedKeyword{}
	for _, kw := range resolveAll(g, rec, "votedKeywords") {
		name := kw.FirstString("keyword", "displayName", "name")
		if name == "" {
			continue
		}
		out = append(out, domain.VotedKeyword{
			Keyword: name,
			Count:   kw.FirstInt("count"),
			IconURL: kw.FirstString("iconUrl", "iconImageUrl"),
		})
	}
	return out
}

func visitCategories(g *Graph, rec Record) []domain.VisitPurpose {
	out := []domain.VisitPurpose{}
	for _, vc := range resolveAll(g, rec, "visitCategories", "visitPurposes") {
		name := vc.FirstString("name", "keyword")
		if name == "" {
			continue
		}
		out = append(out, domain.VisitPurpose{Name: name, Count: vc.FirstInt("count")})
	}
	return out
}

func (e *Extractor) visitorStats(g *Graph) domain.VisitorReviewStats {
	if rec, ok := g.First(e.selectors[KindVisitorStats]); ok {
		return domain.VisitorReviewStats{
			Total:             rec.FirstInt("totalCount", "total"),
			PhotoCount:        rec.FirstInt("photoReviewCount", "imageReviewCount"),
			ContentCount:      rec.FirstInt("contentReviewCount"),
			AverageScore:      rec.FirstFloat("averageScore", "avgRating"),
			ScoreDistribution: scoreDistribution(rec),
		}
	}
	if rec, ok := g.First(e.selectors[KindVisitorSummary]); ok {
		return domain.VisitorReviewStats{
			Total:        rec.FirstInt("count", "totalCount"),
			AverageScore: rec.FirstFloat("rating", "averageScore"),
		}
	}
	return domain.VisitorReviewStats{}
}

func (e *Extractor) blogCafeCount(g *Graph, place Record, hasPlace bool) int {
	if hasPlace {
		if n := place.FirstInt("blogCafeReviewCount", "blogReviewCount"); n > 0 {
			return n
		}
	}
	if rec, ok := g.First(e.selectors[KindBlogSummary]); ok {
		return rec.FirstInt("count", "totalCount")
	}
	return 0
}

func orderOptions(place Record) domain.OrderOptions {
	o := domain.OrderOptions{
		TableOrder: place.AnyTrue("isTableOrder", "tableOrder"),
		Pickup:     place.AnyTrue("pickup", "isPickup"),
		Delivery:   place.AnyTrue("delivery", "isDelivery"),
		BookingID:  place.FirstString("bookingBusinessId", "reservationId"),
	}

	for _, field := range []string{"options", "orderOptions"} {
		raw, ok := place.Raw(field)
		if !ok {
			continue
		}
		switch t := raw.(type) {
		case []any:
			for _, item := range t {
				switch v := item.(type) {
				case string:
					if s := Sanitize(v); s != "" {
						o.Options = append(o.Options, s)
					}
				case map[string]any:
					opt := NewRecord(place.Key, v)
					if b, err := opt.Bool("available"); err == nil && !b {
						continue
					}
					if name := opt.FirstString("type", "name"); name != "" {
						o.Options = append(o.Options, name)
					}
				}
			}
		case map[string]any:
			opt := NewRecord(place.Key, t)
			for _, name := range opt.FieldNames() {
				if b, err := opt.Bool(name); err == nil && b {
					o.Options = append(o.Options, name)
				}
			}
		}
		if len(o.Options) > 0 {
			break
		}
	}
	return o
}

func (e *Extractor) operationTime(g *Graph, place Record, hasPlace bool) domain.OperationTime {
	var ot domain.OperationTime
	if rec, ok := g.First(e.selectors[KindBusinessHours]); ok {
		ot.BreakTime = breakTime(rec)
		ot.LastOrder = rec.FirstString("lastOrder", "lastOrderTime")
		ot.Holidays = rec.FirstStrings("holiday", "holidays", "offDays")
		if ot.Holidays == nil {
			if s := rec.FirstString("holiday", "offDays"); s != "" {
				ot.Holidays = []string{s}
			}
		}
	}
	if hasPlace {
		if ot.BreakTime == nil {
			ot.BreakTime = breakTime(place)
		}
		if ot.LastOrder == "" {
			ot.LastOrder = place.FirstString("lastOrder")
		}
	}
	return ot
}

// breakTime accepts "15:00~17:00", ["15:00","17:00"] or {start,end}.
func breakTime(rec Record) *domain.TimeRange {
	raw, ok := rec.Raw("breakTime")
	if !ok {
		return nil
	}
	switch t := raw.(type) {
	case string:
		m := timeRangePattern.FindStringSubmatch(t)
		if m == nil {
			return nil
		}
		return &domain.TimeRange{Start: m[1], End: m[2]}
	case []any:
		if len(t) < 2 {
			return nil
		}
		start, _ := t[0].(string)
		end, _ := t[1].(string)
		if start == "" || end == "" {
			return nil
		}
		return &domain.TimeRange{Start: start, End: end}
	case map[string]any:
		r := NewRecord(rec.Key, t)
		start := r.FirstString("start", "startTime")
		end := r.FirstString("end", "endTime")
		if start == "" || end == "" {
			return nil
		}
		return &domain.TimeRange{Start: start, End: end}
	}
	return nil
}

package graph

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

// Extraction is a partial listing record plus the gaps met on the way.
type Extraction struct {
	Record domain.ListingRecord
	Gaps   Gaps
}

// ExtractListing decodes everything the graph holds about listingID.
// Missing entities leave their part of the record empty.
func (e *Extractor) ExtractListing(g *Graph, listingID string) Extraction {
	var gaps Gaps
	rec := domain.ListingRecord{
		ID:          listingID,
		Menus:       []domain.Menu{},
		Images:      []domain.Image{},
		Facilities:  []domain.Facility{},
		Payments:    []string{},
		Competitors: []domain.Competitor{},
	}

	rec.Basic = e.basicInfo(g, listingID, &gaps)
	if rec.ID == "" {
		rec.ID = rec.Basic.ID
	}
	rec.Menus = e.menus(g, &gaps)
	rec.Images = e.images(g, &gaps)
	rec.Reviews = domain.Reviews{
		Stats:       e.reviewStats(g),
		Summary:     e.reviewSummary(g),
		BlogReviews: e.blogReviews(g),
	}
	rec.Facilities = e.facilities(g)
	rec.Payments = e.payments(g)
	rec.Competitors = e.ExtractCompetitors(g, listingID)

	return Extraction{Record: rec, Gaps: gaps}
}

func (e *Extractor) basicInfo(g *Graph, listingID string, gaps *Gaps) domain.BasicInfo {
	info := domain.BasicInfo{ID: listingID}

	place, ok := e.listingRecord(g, listingID)
	if !ok {
		gaps.Note(gap("Place:"+listingID, "", GapMissing))
		return info
	}
	if info.ID == "" {
		info.ID = FirstNonEmpty(place.FirstString("id"), place.ID())
	}

	var err error
	info.Name, err = place.LookupString("name")
	gaps.Note(err)
	info.Category, err = place.LookupString("category", "categoryName")
	gaps.Note(err)
	info.Address.Road, err = place.LookupString("roadAddress", "address")
	gaps.Note(err)

	info.Address.Informal = place.FirstString("jibunAddress")
	info.Address.Detail = place.FirstString("addressDetail")
	info.Phone = place.FirstString("phone", "phoneNumber", "virtualPhone")
	info.Description = place.FirstString("description", "intro")
	info.BusinessHours = place.FirstString("businessHours", "openingHours")
	info.Homepage = place.FirstString("homepage", "homepageUrl")
	info.Tags = place.FirstStrings("tags", "keywords")
	return info
}

type menuRank int

const (
	rankRecommended menuRank = iota
	rankPopular
	rankRegular
)

func menuPriority(m domain.Menu) menuRank {
	switch {
	case m.Recommended:
		return rankRecommended
	case m.Popular:
		return rankPopular
	default:
		return rankRegular
	}
}

func (e *Extractor) menus(g *Graph, gaps *Gaps) []domain.Menu {
	menus := Collect(g, e.selectors[KindMenu], decodeMenu, gaps)

	sort.SliceStable(menus, func(i, j int) bool {
		return menuPriority(menus[i]) < menuPriority(menus[j])
	})
	if len(menus) > e.limits.MaxMenus {
		menus = menus[:e.limits.MaxMenus]
	}
	if menus == nil {
		return []domain.Menu{}
	}
	return menus
}

func decodeMenu(rec Record, gaps *Gaps) (domain.Menu, bool) {
	name, err := rec.LookupString("name", "menuName")
	if err != nil {
		gaps.Note(err)
		return domain.Menu{}, false
	}

	m := domain.Menu{
		Name:        name,
		PriceText:   rec.FirstString("price", "priceTagText"),
		Description: rec.FirstString("description", "menuDescription"),
		ImageURL:    rec.FirstString("imageUrl", "image.url"),
		Recommended: rec.AnyTrue("isRecommended", "isSignature", "recommend"),
		Popular:     rec.AnyTrue("isPopular"),
	}
	if n, ok := ParseDigits(m.PriceText); ok {
		m.Price = n
	}
	return m, true
}

func (e *Extractor) images(g *Graph, gaps *Gaps) []domain.Image {
	images := Collect(g, e.selectors[KindImage], func(rec Record, gaps *Gaps) (domain.Image, bool) {
		url, err := rec.LookupString("url", "imageUrl", "origin")
		if err != nil {
			gaps.Note(err)
			return domain.Image{}, false
		}
		img := domain.Image{
			URL:         url,
			Description: rec.FirstString("description", "desc"),
			Tags:        rec.FirstStrings("tags"),
		}
		img.Category = e.ClassifyImage(img.Tags, img.Description)
		return img, true
	}, gaps)
	if images == nil {
		return []domain.Image{}
	}
	return images
}

// ClassifyImage applies the image rules in order; the first rule whose
// tag or phrase matches wins. Unmatched images are "other".
func (e *Extractor) ClassifyImage(tags []string, description string) domain.ImageCategory {
	lowered := make(map[string]bool, len(tags))
	for _, t := range tags {
		lowered[strings.ToLower(t)] = true
	}
	desc := strings.ToLower(description)

	for _, rule := range e.imageRules {
		for _, t := range rule.Tags {
			if lowered[strings.ToLower(t)] {
				return domain.ImageCategory(rule.Category)
			}
		}
		for _, p := range rule.Phrases {
			if p != "" && strings.Contains(desc, strings.ToLower(p)) {
				return domain.ImageCategory(rule.Category)
			}
		}
	}
	return domain.ImageOther
}

func (e *Extractor) blogReviews(g *Graph) []domain.BlogReview {
	var out []domain.BlogReview
	for _, rec := range g.Select(e.selectors[KindBlogReview]) {
		content := rec.FirstString("content", "description", "contents")
		if utf8.RuneCountInString(content) < e.limits.MinBlogRunes {
			continue
		}
		out = append(out, domain.BlogReview{
			ID:      FirstNonEmpty(rec.FirstString("id"), rec.ID()),
			Title:   rec.FirstString("title", "name"),
			Content: content,
			Author:  rec.FirstString("author", "bloggerName", "authorName"),
			URL:     rec.FirstString("url", "blogUrl"),
			Date:    rec.FirstString("date", "createdAt"),
		})
		if len(out) >= e.limits.MaxBlogReviews {
			break
		}
	}
	return out
}

func (e *Extractor) reviewStats(g *Graph) domain.ReviewStats {
	rec, ok := g.First(e.selectors[KindReviewStats])
	if !ok {
		return domain.ReviewStats{}
	}
	return domain.ReviewStats{
		Total:             rec.FirstInt("totalCount", "count"),
		VisitorCount:      rec.FirstInt("visitorReviewCount"),
		BlogCount:         rec.FirstInt("blogReviewCount"),
		AverageScore:      rec.FirstFloat("averageScore", "rating"),
		ScoreDistribution: scoreDistribution(rec),
	}
}

func (e *Extractor) reviewSummary(g *Graph) domain.ReviewSummary {
	rec, ok := g.First(e.selectors[KindReviewSummary])
	if !ok {
		return domain.ReviewSummary{}
	}
	return domain.ReviewSummary{
		Keywords: rec.FirstStrings("keywords"),
		Positive: rec.FirstStrings("positiveKeywords", "positive"),
		Negative: rec.FirstStrings("negativeKeywords", "negative"),
	}
}

func (e *Extractor) facilities(g *Graph) []domain.Facility {
	out := []domain.Facility{}
	rec, ok := g.First(e.selectors[KindFacility])
	if !ok {
		return out
	}
	for _, item := range rec.FirstObjects("list", "items") {
		name := item.FirstString("name", "label")
		if name == "" {
			continue
		}
		available := true
		if b, err := item.Bool("available"); err == nil {
			available = b
		}
		out = append(out, domain.Facility{
			Name:        name,
			Available:   available,
			Description: item.FirstString("description"),
		})
	}
	return out
}

func (e *Extractor) payments(g *Graph) []string {
	rec, ok := g.First(e.selectors[KindPayment])
	if !ok {
		return []string{}
	}
	if p := rec.FirstStrings("list", "items"); p != nil {
		return p
	}
	return []string{}
}

// scoreDistribution reads [{score, count}] into a score->count map.
func scoreDistribution(rec Record) map[string]int {
	items, err := rec.Objects("scoreDistribution")
	if err != nil || len(items) == 0 {
		return nil
	}
	dist := make(map[string]int, len(items))
	for _, item := range items {
		score := item.FirstString("score")
		if score == "" {
			continue
		}
		count, _ := item.Int("count")
		dist[score] = count
	}
	return dist
}

// Package classifier sorts listing text signals into the core, location,
// menu, attribute and sentiment keyword taxonomies.
//
// Matching is plain substring search over vocabulary tables loaded from
// internal/vocab. Missing input yields empty lists, never an error.
package classifier

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/logger"
	"github.com/custodia-labs/placerank/internal/vocab"
)

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	nonWord       = regexp.MustCompile(`[^\w가-힣\s]`)
)

// Classifier classifies listing records. Safe for concurrent use.
type Classifier struct {
	kw       vocab.Keywords
	stopword map[string]bool
}

// New creates a classifier. A nil vocabulary uses the embedded default.
func New(v *vocab.Vocabulary) *Classifier {
	if v == nil {
		v = vocab.Default()
	}
	stop := make(map[string]bool, len(v.Keywords.Stopwords))
	for _, w := range v.Keywords.Stopwords {
		stop[w] = true
	}
	return &Classifier{kw: v.Keywords, stopword: stop}
}

// Classify extracts the five keyword lists from rec. Location keywords
// are taken from addr as is. Every list is deduplicated and ordered by
// frequency.
func (c *Classifier) Classify(rec domain.ListingRecord, addr domain.ParsedAddress) domain.ClassifiedKeywords {
	attrs, attrBreakdown := c.attributeKeywords(rec)
	sentiment, sentBreakdown := c.sentimentKeywords(rec)

	out := domain.ClassifiedKeywords{
		Core:      dedupeAndSort(c.coreKeywords(rec.Basic)),
		Location:  dedupeAndSort(addr.LocationKeywords),
		Menu:      dedupeAndSort(c.menuKeywords(rec.Menus)),
		Attribute: dedupeAndSort(attrs),
		Sentiment: dedupeAndSort(sentiment),
		Details: domain.KeywordDetails{
			Attribute: attrBreakdown,
			Sentiment: sentBreakdown,
		},
	}

	logger.Debug("Keywords classified: core(%d), location(%d), menu(%d), attribute(%d), sentiment(%d)",
		len(out.Core), len(out.Location), len(out.Menu), len(out.Attribute), len(out.Sentiment))
	return out
}

func (c *Classifier) coreKeywords(basic domain.BasicInfo) []string {
	var out []string
	text := strings.Join([]string{basic.Category, basic.Name, basic.Description}, " ")
	out = append(out, matchAll(text, c.kw.Core)...)

	delims := c.kw.CategoryDelimiters
	for _, part := range strings.FieldsFunc(basic.Category, func(r rune) bool {
		return strings.ContainsRune(delims, r)
	}) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return append(out, basic.Tags...)
}

// prioritizedMenus orders recommended, then popular, then the rest, and
// keeps at most limit menus.
func prioritizedMenus(menus []domain.Menu, limit int) []domain.Menu {
	var recommended, popular, regular []domain.Menu
	for _, m := range menus {
		switch {
		case m.Recommended:
			recommended = append(recommended, m)
		case m.Popular:
			popular = append(popular, m)
		default:
			regular = append(regular, m)
		}
	}

	out := make([]domain.Menu, 0, len(menus))
	out = append(out, recommended...)
	out = append(out, popular...)
	out = append(out, regular...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (c *Classifier) menuKeywords(menus []domain.Menu) []string {
	var out []string
	for _, m := range prioritizedMenus(menus, c.kw.Limits.MenuCount) {
		if m.Name == "" {
			continue
		}
		if name := CleanMenuName(m.Name); utf8.RuneCountInString(name) >= c.kw.Limits.MinTokenRunes {
			out = append(out, name)
		}
		if m.Description != "" {
			out = append(out, c.Tokens(m.Description, c.kw.Limits.DescriptionTokens)...)
		}
	}
	return out
}

// CleanMenuName drops parentheticals and punctuation from a menu name.
func CleanMenuName(name string) string {
	name = parenthetical.ReplaceAllString(name, "")
	name = nonWord.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// Tokens returns the n most frequent words of text. Short words and
// stopwords are skipped; ties keep their first-seen order.
func (c *Classifier) Tokens(text string, n int) []string {
	words := strings.Fields(nonWord.ReplaceAllString(text, " "))

	var kept []string
	for _, w := range words {
		if utf8.RuneCountInString(w) < c.kw.Limits.MinTokenRunes || c.stopword[w] {
			continue
		}
		kept = append(kept, w)
	}

	ranked := rankByFrequency(kept, func(s string) string { return s })
	return head(ranked, n)
}

func (c *Classifier) attributeKeywords(rec domain.ListingRecord) ([]string, map[string][]string) {
	limit := c.kw.Limits.SummaryTerms
	sources := []string{rec.Basic.Description}
	sources = append(sources, head(rec.Reviews.Summary.Positive, limit)...)
	sources = append(sources, head(rec.Reviews.Summary.Keywords, limit)...)
	text := strings.Join(sources, " ")

	breakdown := make(map[string][]string, len(c.kw.Attributes))
	for _, group := range c.kw.Attributes {
		breakdown[group.Name] = matchAll(text, group.Patterns)
	}

	if target := c.kw.FacilityAttribute; target != "" {
		for _, f := range rec.Facilities {
			if f.Available && f.Name != "" {
				breakdown[target] = append(breakdown[target], f.Name)
			}
		}
	}

	var flat []string
	for _, group := range c.kw.Attributes {
		flat = append(flat, breakdown[group.Name]...)
	}
	return flat, breakdown
}

func (c *Classifier) sentimentKeywords(rec domain.ListingRecord) ([]string, domain.SentimentBreakdown) {
	b := domain.SentimentBreakdown{Positive: []string{}, Negative: []string{}}
	b.Positive = append(b.Positive, rec.Reviews.Summary.Positive...)
	b.Negative = append(b.Negative, rec.Reviews.Summary.Negative...)

	for _, review := range head(rec.Reviews.BlogReviews, c.kw.Limits.SentimentReviews) {
		b.Positive = append(b.Positive, matchAll(review.Content, c.kw.Sentiment.Positive)...)
		b.Negative = append(b.Negative, matchAll(review.Content, c.kw.Sentiment.Negative)...)
	}

	flat := make([]string, 0, len(b.Positive)+len(b.Negative))
	flat = append(flat, b.Positive...)
	flat = append(flat, b.Negative...)
	return flat, b
}

// Statistics counts the classified keywords.
func Statistics(k domain.ClassifiedKeywords) domain.KeywordStats {
	stats := domain.KeywordStats{
		ByCategory: map[string]int{
			domain.TaxonomyCore:      len(k.Core),
			domain.TaxonomyLocation:  len(k.Location),
			domain.TaxonomyMenu:      len(k.Menu),
			domain.TaxonomyAttribute: len(k.Attribute),
			domain.TaxonomySentiment: len(k.Sentiment),
		},
		AttributeDetail: make(map[string]int, len(k.Details.Attribute)),
		Positive:        len(k.Details.Sentiment.Positive),
		Negative:        len(k.Details.Sentiment.Negative),
	}
	for _, n := range stats.ByCategory {
		stats.Total += n
	}
	for name, list := range k.Details.Attribute {
		stats.AttributeDetail[name] = len(list)
	}
	return stats
}

// dedupeAndSort folds keywords by trimmed lower-case form and orders them
// by occurrence count, descending. Ties keep first-seen order and each
// keyword keeps its first-seen spelling.
func dedupeAndSort(keywords []string) []string {
	var kept []string
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			kept = append(kept, strings.TrimSpace(kw))
		}
	}
	return rankByFrequency(kept, func(s string) string { return strings.ToLower(s) })
}

func rankByFrequency(words []string, key func(string) string) []string {
	type entry struct {
		word  string
		count int
	}
	var entries []*entry
	index := make(map[string]*entry)
	for _, w := range words {
		k := key(w)
		if e, ok := index[k]; ok {
			e.count++
			continue
		}
		e := &entry{word: w, count: 1}
		index[k] = e
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.word
	}
	return out
}

func matchAll(text string, patterns []string) []string {
	out := []string{}
	if text == "" {
		return out
	}
	for _, p := range patterns {
		if p != "" && strings.Contains(text, p) {
			out = append(out, p)
		}
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Package vocab loads the vocabulary tables used by the address parser,
// the graph extractor's image classifier, the category mapper and the
// keyword classifier.
//
// The default tables are embedded from default.yaml. A file with the same
// shape can replace them at runtime (vocab.path in the config file).
package vocab

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Address holds the tables used to decompose addresses.
type Address struct {
	Provinces            []string          `yaml:"provinces"`
	ProvinceSuffixes     []string          `yaml:"province_suffixes"`
	CanonicalCities      map[string]string `yaml:"canonical_cities"`
	MetropolitanSuffix   string            `yaml:"metropolitan_suffix"`
	MetropolitanCities   []string          `yaml:"metropolitan_cities"`
	DistrictSuffixes     []string          `yaml:"district_suffixes"`
	NeighborhoodSuffixes []string          `yaml:"neighborhood_suffixes"`
	StationSuffix        string            `yaml:"station_suffix"`
	Stations             []string          `yaml:"stations"`
	CommercialAreas      []string          `yaml:"commercial_areas"`
	BuildingSuffixes     []string          `yaml:"building_suffixes"`
}

// PatternGroup is a named list of substring patterns.
type PatternGroup struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// Sentiment holds polarity patterns.
type Sentiment struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// Limits bound keyword extraction.
type Limits struct {
	MenuCount         int `yaml:"menu_count"`
	DescriptionTokens int `yaml:"description_tokens"`
	SummaryTerms      int `yaml:"summary_terms"`
	SentimentReviews  int `yaml:"sentiment_reviews"`
	MinTokenRunes     int `yaml:"min_token_runes"`
}

// Keywords holds the classifier tables.
type Keywords struct {
	Core               []string       `yaml:"core"`
	CategoryDelimiters string         `yaml:"category_delimiters"`
	Attributes         []PatternGroup `yaml:"attributes"`
	FacilityAttribute  string         `yaml:"facility_attribute"`
	Sentiment          Sentiment      `yaml:"sentiment"`
	Stopwords          []string       `yaml:"stopwords"`
	Limits             Limits         `yaml:"limits"`
}

// ImageRule assigns a category to images carrying one of Tags or whose
// description contains one of Phrases.
type ImageRule struct {
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
	Phrases  []string `yaml:"phrases"`
}

// Category is one entry of the category table. Path is the hierarchy
// from the top level down, joined by " > ".
type Category struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Categories holds the category table.
type Categories struct {
	// RestaurantMarkers mark a hierarchy path as a restaurant.
	RestaurantMarkers []string   `yaml:"restaurant_markers"`
	Entries           []Category `yaml:"entries"`
}

// Vocabulary is the complete set of tables.
type Vocabulary struct {
	Address    Address     `yaml:"address"`
	Keywords   Keywords    `yaml:"keywords"`
	Images     []ImageRule `yaml:"images"`
	Categories Categories  `yaml:"categories"`
}

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
	defaultErr   error
)

// Default returns the embedded vocabulary. It panics if the embedded
// tables are invalid, which the package tests rule out.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		defaultVocab, defaultErr = Parse(defaultYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("vocab: embedded tables: %v", defaultErr))
	}
	return defaultVocab
}

// Load reads a vocabulary file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates vocabulary YAML.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("vocab: decode: %w", err)
	}
	v.applyDefaults()
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *Vocabulary) applyDefaults() {
	l := &v.Keywords.Limits
	if l.MenuCount <= 0 {
		l.MenuCount = 20
	}
	if l.DescriptionTokens <= 0 {
		l.DescriptionTokens = 3
	}
	if l.SummaryTerms <= 0 {
		l.SummaryTerms = 10
	}
	if l.SentimentReviews <= 0 {
		l.SentimentReviews = 5
	}
	if l.MinTokenRunes <= 0 {
		l.MinTokenRunes = 2
	}
	if v.Keywords.CategoryDelimiters == "" {
		v.Keywords.CategoryDelimiters = ">/,"
	}
	if len(v.Categories.RestaurantMarkers) == 0 {
		v.Categories.RestaurantMarkers = []string{"음식점", "카페", "디저트", "베이커리", "주점"}
	}
}

// Validate checks that the tables the parsers depend on are present.
func (v *Vocabulary) Validate() error {
	var errs []error
	if len(v.Address.Provinces) == 0 {
		errs = append(errs, errors.New("vocab: address.provinces is empty"))
	}
	if len(v.Address.DistrictSuffixes) == 0 {
		errs = append(errs, errors.New("vocab: address.district_suffixes is empty"))
	}
	if len(v.Address.NeighborhoodSuffixes) == 0 {
		errs = append(errs, errors.New("vocab: address.neighborhood_suffixes is empty"))
	}
	if v.Address.StationSuffix == "" {
		errs = append(errs, errors.New("vocab: address.station_suffix is empty"))
	}
	seen := make(map[string]bool)
	for _, g := range v.Keywords.Attributes {
		if g.Name == "" {
			errs = append(errs, errors.New("vocab: attribute group without name"))
			continue
		}
		if seen[g.Name] {
			errs = append(errs, fmt.Errorf("vocab: duplicate attribute group %q", g.Name))
		}
		seen[g.Name] = true
	}
	if v.Keywords.FacilityAttribute != "" && !seen[v.Keywords.FacilityAttribute] {
		errs = append(errs, fmt.Errorf("vocab: facility attribute %q is not an attribute group", v.Keywords.FacilityAttribute))
	}
	for _, r := range v.Images {
		if r.Category == "" {
			errs = append(errs, errors.New("vocab: image rule without category"))
		}
	}
	ids := make(map[string]bool, len(v.Categories.Entries))
	for _, c := range v.Categories.Entries {
		if c.ID == "" || c.Name == "" {
			errs = append(errs, fmt.Errorf("vocab: category %q needs an id and a name", c.ID+c.Name))
			continue
		}
		if ids[c.ID] {
			errs = append(errs, fmt.Errorf("vocab: duplicate category id %q", c.ID))
		}
		ids[c.ID] = true
	}
	return errors.Join(errs...)
}

// AttributeNames returns the attribute group names in table order.
func (k Keywords) AttributeNames() []string {
	names := make([]string, 0, len(k.Attributes))
	for _, g := range k.Attributes {
		names = append(names, g.Name)
	}
	return names
}

package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/vocab"
)

func TestParse_SeoulRoadAddress(t *testing.T) {
	p := NewParser(nil)
	in := domain.AddressInput{
		Road:   "서울특별시 강남구 역삼동 823-1",
		Detail: "강남역 5번 출구 앞 OO빌딩 3층",
	}

	got := p.Parse(in)

	assert.Equal(t, in, got.Original)
	assert.Equal(t, "서울특별시", got.City)
	assert.Equal(t, "강남구", got.District)
	assert.Equal(t, "역삼동", got.Neighborhood)
	assert.Equal(t, "강남역", got.NearestStation)
	assert.Equal(t, "강남", got.CommercialArea)
	assert.Equal(t, "OO빌딩", got.Building)
	assert.Equal(t, []string{"강남", "강남역", "역삼동", "역삼", "강남구"}, got.LocationKeywords)
}

func TestParse_CityNormalisation(t *testing.T) {
	p := NewParser(nil)
	tests := []struct {
		address string
		city    string
	}{
		{"서울 마포구 서교동 1", "서울특별시"},
		{"서울시 마포구 서교동 1", "서울특별시"},
		{"부산 해운대구 우동 1408", "부산광역시"},
		{"대구광역시 중구 동성로 1", "대구광역시"},
		{"세종 한누리대로 2130", "세종특별자치시"},
		{"경기도 성남시 분당구 정자동 1", "경기도"},
		{"제주특별자치도 제주시 애월읍 1", "제주특별자치도"},
		{"강원 춘천시 중앙로 1", "강원"},
		{"테헤란로 152", ""},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.city, p.Parse(domain.AddressInput{Road: tt.address}).City)
		})
	}
}

func TestParse_Hierarchy(t *testing.T) {
	p := NewParser(nil)
	tests := []struct {
		name         string
		address      string
		district     string
		neighborhood string
	}{
		{"province city then dong", "경기도 성남시 분당구 정자동 178-1", "성남시", "정자동"},
		{"metropolitan", "부산광역시 해운대구 우동 1408", "해운대구", "우동"},
		{"eup", "제주특별자치도 제주시 애월읍 애월로 1", "제주시", "애월읍"},
		{"road name without dong", "서울특별시 강남구 테헤란로 152", "강남구", ""},
		{"no district", "세종 한누리대로 2130", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(domain.AddressInput{Road: tt.address})
			assert.Equal(t, tt.district, got.District)
			assert.Equal(t, tt.neighborhood, got.Neighborhood)
		})
	}
}

func TestParse_InformalFallback(t *testing.T) {
	got := NewParser(nil).Parse(domain.AddressInput{Informal: "서울특별시 마포구 서교동 395-166"})

	assert.Equal(t, "서울특별시", got.City)
	assert.Equal(t, "마포구", got.District)
	assert.Equal(t, "서교동", got.Neighborhood)
	assert.Equal(t, "마포", got.CommercialArea)
}

func TestParse_StationFallbackRegex(t *testing.T) {
	got := NewParser(nil).Parse(domain.AddressInput{
		Road:   "서울특별시 성동구 왕십리로 83",
		Detail: "뚝섬역 인근",
	})
	assert.Equal(t, "뚝섬역", got.NearestStation)
	assert.Contains(t, got.LocationKeywords, "뚝섬역")
	assert.Contains(t, got.LocationKeywords, "뚝섬")
}

func TestParse_Empty(t *testing.T) {
	got := NewParser(nil).Parse(domain.AddressInput{Detail: "3층"})

	assert.Empty(t, got.City)
	assert.Empty(t, got.District)
	assert.Empty(t, got.Original.Detail)
	assert.NotNil(t, got.LocationKeywords)
	assert.Empty(t, got.LocationKeywords)
}

func TestParse_NoBuildingSuffixes(t *testing.T) {
	v, err := vocab.Parse([]byte(`
address:
  provinces: [서울]
  canonical_cities: {서울: 서울특별시}
  district_suffixes: [구]
  neighborhood_suffixes: [동]
  station_suffix: 역
`))
	require.NoError(t, err)

	got := NewParser(v).Parse(domain.AddressInput{Road: "서울 강남구 테헤란로 152"})

	assert.Equal(t, "강남구", got.District)
	assert.Empty(t, got.Building)
}

func TestParse_Idempotent(t *testing.T) {
	p := NewParser(nil)
	in := domain.AddressInput{Road: "서울특별시 중구 명동길 14", Informal: "서울 중구 명동2가 54", Detail: "2층"}

	first := p.Parse(in)
	second := p.Parse(in)
	require.Equal(t, first, second)

	other := NewParser(nil).Parse(in)
	assert.Equal(t, first, other)
}

func TestParse_LocationKeywordsDeduplicated(t *testing.T) {
	got := NewParser(nil).Parse(domain.AddressInput{Road: "서울특별시 중구 명동길 14"})

	assert.Equal(t, "명동", got.CommercialArea)
	assert.Equal(t, "명동", got.Neighborhood)

	seen := map[string]bool{}
	for _, kw := range got.LocationKeywords {
		assert.False(t, seen[kw], "duplicate keyword %s", kw)
		seen[kw] = true
	}
	assert.Equal(t, "명동", got.LocationKeywords[0])
	assert.Equal(t, "중구", got.LocationKeywords[len(got.LocationKeywords)-1])
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "서울특별시 강남구 테헤란로 152", Normalize("  서울특별시   강남구\t테헤란로 152 "))
	assert.Equal(t, "abc 8231", Normalize("ABC 823-1"))
}

func TestSimilarity(t *testing.T) {
	p := NewParser(nil)
	a := p.Parse(domain.AddressInput{Road: "서울특별시 강남구 역삼동 823"})
	b := p.Parse(domain.AddressInput{Road: "서울특별시 강남구 역삼동 100"})
	c := p.Parse(domain.AddressInput{Road: "부산광역시 해운대구 우동 1"})

	assert.InDelta(t, 1.0, Similarity(a, b), 1e-9)
	assert.InDelta(t, 0.0, Similarity(a, c), 1e-9)
	assert.Equal(t, 0.0, Similarity(domain.ParsedAddress{}, domain.ParsedAddress{}))

	partial := a
	partial.Neighborhood = "삼성동"
	// city, district, area match; neighbourhood differs; station unset on both.
	assert.InDelta(t, 0.75, Similarity(a, partial), 1e-9)
}

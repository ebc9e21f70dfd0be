package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) *Graph {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	g, err := Parse(data)
	require.NoError(t, err)
	return g
}

// ==================== Parse Tests ====================

func TestParse_KeepsDocumentOrder(t *testing.T) {
	g, err := Parse([]byte(`{"b": {}, "a": {}, "c": {"x": 1}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, g.Keys())
	assert.Equal(t, 3, g.Len())
}

func TestParse_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	g, err := Parse([]byte(`{"a": {"v": 1}, "b": {}, "a": {"v": 2}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, g.Keys())
	rec, err := g.Record("a")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.FirstInt("v"))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "not json"},
		{"array", `[1, 2]`},
		{"truncated", `{"a": {`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestFromMap_SortsKeys(t *testing.T) {
	g := FromMap(map[string]any{"z": map[string]any{}, "a": map[string]any{}}, DefaultSchema())
	assert.Equal(t, []string{"a", "z"}, g.Keys())
}

// ==================== Record Tests ====================

func TestRecord_Missing(t *testing.T) {
	g := loadFixture(t, "detail.json")

	_, err := g.Record("Place:nope")
	require.Error(t, err)
	assert.True(t, IsParseGap(err))
}

func TestRecord_Accessors(t *testing.T) {
	g, err := Parse([]byte(`{"X:1": {
		"s": "  a   <i>b</i> ",
		"n": 12,
		"ns": "1,234개",
		"f": "4.5",
		"b": true,
		"bs": "true",
		"nul": null,
		"arr": ["x", "", {"label": "y"}, 3],
		"obj": {"inner": {"v": "deep"}}
	}}`))
	require.NoError(t, err)
	rec, err := g.Record("X:1")
	require.NoError(t, err)

	t.Run("string is sanitized", func(t *testing.T) {
		s, err := rec.String("s")
		require.NoError(t, err)
		assert.Equal(t, "a b", s)
	})

	t.Run("number formats as string", func(t *testing.T) {
		s, err := rec.String("n")
		require.NoError(t, err)
		assert.Equal(t, "12", s)
	})

	t.Run("int from numeric string", func(t *testing.T) {
		n, err := rec.Int("ns")
		require.NoError(t, err)
		assert.Equal(t, 1234, n)
	})

	t.Run("float from string", func(t *testing.T) {
		f, err := rec.Float("f")
		require.NoError(t, err)
		assert.InDelta(t, 4.5, f, 0.0001)
	})

	t.Run("bool only from json bool", func(t *testing.T) {
		b, err := rec.Bool("b")
		require.NoError(t, err)
		assert.True(t, b)

		_, err = rec.Bool("bs")
		assert.True(t, IsParseGap(err))
	})

	t.Run("null is absent", func(t *testing.T) {
		assert.False(t, rec.Has("nul"))
		_, err := rec.String("nul")
		var pg *ParseGap
		require.ErrorAs(t, err, &pg)
		assert.Equal(t, GapMissing, pg.Reason)
	})

	t.Run("strings skip unusable entries", func(t *testing.T) {
		s, err := rec.Strings("arr")
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, s)
	})

	t.Run("dotted path", func(t *testing.T) {
		assert.Equal(t, "deep", rec.FirstString("obj.inner.v"))
	})

	t.Run("lookup names every candidate", func(t *testing.T) {
		_, err := rec.LookupString("missing", "nul")
		var pg *ParseGap
		require.ErrorAs(t, err, &pg)
		assert.Equal(t, "X:1", pg.Key)
		assert.Equal(t, "missing|nul", pg.Field)
	})

	t.Run("id after first colon", func(t *testing.T) {
		assert.Equal(t, "1", rec.ID())
	})
}

func TestParseDigits(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12,000원", 12000, true},
		{"가격 9000", 9000, true},
		{"변동", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := ParseDigits(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, 0, FirstNonEmpty(0, 0))
}

// ==================== Selector Tests ====================

func TestSelector_Match(t *testing.T) {
	sel := Selector{
		Prefixes: []string{"Menu:"},
		Contains: []string{"ReviewSummary"},
		Exclude:  []string{"Blog"},
	}

	assert.True(t, sel.Match("Menu:1"))
	assert.True(t, sel.Match("VisitorReviewSummary:1"))
	assert.False(t, sel.Match("BlogReviewSummary:1"))
	assert.False(t, sel.Match("Image:1"))
}

func TestSelect_DocumentOrder(t *testing.T) {
	g := loadFixture(t, "detail.json")

	recs := g.Select(Selector{Prefixes: []string{"Menu:"}})
	keys := make([]string, 0, len(recs))
	for _, r := range recs {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"Menu:1", "Menu:2", "Menu:3", "Menu:4"}, keys)
}

func TestRootFields_DocumentOrder(t *testing.T) {
	g, err := Parse([]byte(`{"ROOT_QUERY": {"zeta": 1, "alpha": {"b": 2, "a": 1}, "mid": null}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, g.RootFields())
}

func TestRootFields_FromMapSorted(t *testing.T) {
	g := FromMap(map[string]any{
		"ROOT_QUERY": map[string]any{"b": 1, "a": 2},
	}, DefaultSchema())

	assert.Equal(t, []string{"a", "b"}, g.RootFields())
}

func TestSearchList_FirstInDocumentOrder(t *testing.T) {
	g, err := Parse([]byte(`{
		"ROOT_QUERY": {
			"restaurantList({\"input\":{\"start\":16}})": {"total": 2, "items": []},
			"placeList({\"input\":{\"start\":1}})": {"total": 1, "items": []}
		}
	}`))
	require.NoError(t, err)

	list, err := g.SearchList()

	require.NoError(t, err)
	assert.Equal(t, 2, list.FirstInt("total"))
}

// ==================== Resolve Tests ====================

func TestResolve(t *testing.T) {
	g := loadFixture(t, "search.json")

	t.Run("reference", func(t *testing.T) {
		rec, err := g.Resolve(map[string]any{"__ref": "RestaurantListSummary:1"})
		require.NoError(t, err)
		assert.Equal(t, "1001", rec.FirstString("id"))
	})

	t.Run("dangling reference", func(t *testing.T) {
		_, err := g.Resolve(map[string]any{"__ref": "RestaurantListSummary:3"})
		var pg *ParseGap
		require.ErrorAs(t, err, &pg)
		assert.Equal(t, GapUnresolved, pg.Reason)
	})

	t.Run("inline object", func(t *testing.T) {
		rec, err := g.Resolve(map[string]any{"id": "x"})
		require.NoError(t, err)
		assert.Equal(t, "x", rec.FirstString("id"))
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := g.Resolve("RestaurantListSummary:1")
		assert.True(t, IsParseGap(err))
	})
}

// ==================== Gaps Tests ====================

func TestGaps_NoteIgnoresOtherErrors(t *testing.T) {
	var gaps Gaps
	gaps.Note(nil)
	gaps.Note(os.ErrNotExist)
	gaps.Note(gap("K", "f", GapEmpty))

	require.Len(t, gaps, 1)
	assert.Equal(t, "graph: K.f: empty", gaps[0].Error())
}

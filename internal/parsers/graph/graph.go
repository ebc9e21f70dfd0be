package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Schema names the structural markers of the embedded graph.
type Schema struct {
	// RootKey holds the query roots.
	RootKey string

	// RefField is the pointer field inside reference objects.
	RefField string

	// SearchListPrefixes are the root field prefixes of search result lists.
	SearchListPrefixes []string

	// ItemsField holds the reference array of a list.
	ItemsField string

	// TotalField holds a list's reported result count.
	TotalField string
}

// DefaultSchema returns the shape used by the mobile place pages.
func DefaultSchema() Schema {
	return Schema{
		RootKey:            "ROOT_QUERY",
		RefField:           "__ref",
		SearchListPrefixes: []string{"restaurantList(", "placeList(", "businesses("},
		ItemsField:         "items",
		TotalField:         "total",
	}
}

// Graph is a decoded entity graph that keeps the document order of its
// top-level keys.
type Graph struct {
	schema     Schema
	keys       []string
	entries    map[string]any
	rootFields []string
}

// Parse decodes a blob with DefaultSchema.
func Parse(data []byte) (*Graph, error) {
	return ParseWithSchema(data, DefaultSchema())
}

// ParseWithSchema decodes a blob. The blob must be a JSON object.
func ParseWithSchema(data []byte, schema Schema) (*Graph, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("graph: decode: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("graph: blob is not an object")
	}

	g := &Graph{schema: schema, entries: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("graph: decode key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("graph: unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("graph: decode %s: %w", key, err)
		}
		value, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("graph: decode %s: %w", key, err)
		}
		if key == schema.RootKey {
			g.rootFields = objectKeys(raw)
		}
		if _, dup := g.entries[key]; !dup {
			g.keys = append(g.keys, key)
		}
		g.entries[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("graph: decode: %w", err)
	}
	return g, nil
}

// FromMap builds a graph from decoded entries. Key order is sorted
// since map order is lost.
func FromMap(entries map[string]any, schema Schema) *Graph {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Graph{schema: schema, keys: keys, entries: entries}
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

// objectKeys returns the field names of a JSON object in document order,
// or nil when raw is not an object.
func objectKeys(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
		keys = append(keys, key)
	}
	return keys
}

// RootFields returns the query root's field names in document order.
// Graphs built with FromMap report them sorted.
func (g *Graph) RootFields() []string {
	if g.rootFields != nil {
		return g.rootFields
	}
	root, err := g.Root()
	if err != nil {
		return nil
	}
	return root.FieldNames()
}

// Schema returns the graph's schema.
func (g *Graph) Schema() Schema {
	return g.schema
}

// Len returns the number of top-level keys.
func (g *Graph) Len() int {
	return len(g.keys)
}

// Keys returns the top-level keys in document order.
func (g *Graph) Keys() []string {
	return g.keys
}

// Record returns the entity stored under key.
func (g *Graph) Record(key string) (Record, error) {
	v, ok := g.entries[key]
	if !ok {
		return Record{}, gap(key, "", GapMissing)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Record{}, gap(key, "", GapType)
	}
	return Record{Key: key, fields: m}, nil
}

// Root returns the query root record.
func (g *Graph) Root() (Record, error) {
	return g.Record(g.schema.RootKey)
}

// RefKey returns the target key of a reference object.
func (g *Graph) RefKey(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	key, ok := m[g.schema.RefField].(string)
	return key, ok && key != ""
}

// Resolve follows a reference object to its entity. Inline objects
// without a reference field resolve to themselves.
func (g *Graph) Resolve(v any) (Record, error) {
	if key, ok := g.RefKey(v); ok {
		rec, err := g.Record(key)
		if err != nil {
			return Record{}, gap(key, g.schema.RefField, GapUnresolved)
		}
		return rec, nil
	}
	if m, ok := v.(map[string]any); ok {
		return Record{fields: m}, nil
	}
	return Record{}, gap("", g.schema.RefField, GapType)
}

// Select returns every entity whose key matches sel, in document order.
func (g *Graph) Select(sel Selector) []Record {
	var out []Record
	for _, key := range g.keys {
		if !sel.Match(key) {
			continue
		}
		if rec, err := g.Record(key); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// First returns the first entity whose key matches sel.
func (g *Graph) First(sel Selector) (Record, bool) {
	for _, key := range g.keys {
		if !sel.Match(key) {
			continue
		}
		if rec, err := g.Record(key); err == nil {
			return rec, true
		}
	}
	return Record{}, false
}

// Selector matches entity keys structurally.
type Selector struct {
	// Prefixes match keys that start with any entry.
	Prefixes []string

	// Contains match keys that contain any entry.
	Contains []string

	// Exclude rejects keys that contain any entry.
	Exclude []string
}

// Match reports whether key is selected.
func (s Selector) Match(key string) bool {
	for _, ex := range s.Exclude {
		if strings.Contains(key, ex) {
			return false
		}
	}
	for _, p := range s.Prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	for _, c := range s.Contains {
		if strings.Contains(key, c) {
			return true
		}
	}
	return false
}

// Decoder turns a matched entity into a typed value. ok is false when
// the entity carries nothing usable.
type Decoder[T any] func(rec Record, gaps *Gaps) (value T, ok bool)

// Collect decodes every entity matched by sel, in document order.
func Collect[T any](g *Graph, sel Selector, dec Decoder[T], gaps *Gaps) []T {
	var out []T
	for _, rec := range g.Select(sel) {
		if v, ok := dec(rec, gaps); ok {
			out = append(out, v)
		}
	}
	return out
}

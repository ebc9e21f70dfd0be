package graph

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Record is one entity of the graph. Field names may be dotted paths
// into nested objects ("image.url").
type Record struct {
	Key    string
	fields map[string]any
}

// NewRecord wraps decoded fields.
func NewRecord(key string, fields map[string]any) Record {
	return Record{Key: key, fields: fields}
}

// ID returns the part of the key after the first ':'.
func (r Record) ID() string {
	if _, id, ok := strings.Cut(r.Key, ":"); ok {
		return id
	}
	return r.Key
}

// FieldNames returns the record's top-level field names, sorted.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.fields))
	for k := range r.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Raw returns the value at field. JSON null counts as absent.
func (r Record) Raw(field string) (any, bool) {
	var cur any = r.fields
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether field is present and not null.
func (r Record) Has(field string) bool {
	_, ok := r.Raw(field)
	return ok
}

// String returns a non-empty string field. Numbers are formatted.
func (r Record) String(field string) (string, error) {
	v, ok := r.Raw(field)
	if !ok {
		return "", gap(r.Key, field, GapMissing)
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return "", gap(r.Key, field, GapType)
	}
	s = Sanitize(s)
	if s == "" {
		return "", gap(r.Key, field, GapEmpty)
	}
	return s, nil
}

// Float returns a numeric field. Numeric strings are accepted.
func (r Record) Float(field string) (float64, error) {
	v, ok := r.Raw(field)
	if !ok {
		return 0, gap(r.Key, field, GapMissing)
	}
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, gap(r.Key, field, GapType)
		}
		return f, nil
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		if err != nil {
			return 0, gap(r.Key, field, GapType)
		}
		return f, nil
	default:
		return 0, gap(r.Key, field, GapType)
	}
}

// Int returns an integer field. Strings like "1,234" are accepted.
func (r Record) Int(field string) (int, error) {
	v, ok := r.Raw(field)
	if !ok {
		return 0, gap(r.Key, field, GapMissing)
	}
	if s, isString := v.(string); isString {
		n, ok := ParseDigits(s)
		if !ok {
			return 0, gap(r.Key, field, GapType)
		}
		return n, nil
	}
	f, err := r.Float(field)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// Bool returns a boolean field. JS truthiness is not emulated: only
// JSON booleans count.
func (r Record) Bool(field string) (bool, error) {
	v, ok := r.Raw(field)
	if !ok {
		return false, gap(r.Key, field, GapMissing)
	}
	b, ok := v.(bool)
	if !ok {
		return false, gap(r.Key, field, GapType)
	}
	return b, nil
}

// Strings returns a string array field. Non-string entries are skipped;
// objects contribute their name or label.
func (r Record) Strings(field string) ([]string, error) {
	v, ok := r.Raw(field)
	if !ok {
		return nil, gap(r.Key, field, GapMissing)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, gap(r.Key, field, GapType)
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch t := item.(type) {
		case string:
			if s := Sanitize(t); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := NewRecord(r.Key, t).FirstString("name", "label", "keyword"); s != "" {
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return nil, gap(r.Key, field, GapEmpty)
	}
	return out, nil
}

// Objects returns an array-of-objects field. References are left
// unresolved; use Graph.Resolve on Raw values for those.
func (r Record) Objects(field string) ([]Record, error) {
	v, ok := r.Raw(field)
	if !ok {
		return nil, gap(r.Key, field, GapMissing)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, gap(r.Key, field, GapType)
	}
	out := make([]Record, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, NewRecord(r.Key, m))
		}
	}
	return out, nil
}

// Object returns a nested object field.
func (r Record) Object(field string) (Record, error) {
	v, ok := r.Raw(field)
	if !ok {
		return Record{}, gap(r.Key, field, GapMissing)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Record{}, gap(r.Key, field, GapType)
	}
	return NewRecord(r.Key, m), nil
}

// FirstString returns the first non-empty string among fields, in
// priority order, or "".
func (r Record) FirstString(fields ...string) string {
	s, _ := r.LookupString(fields...)
	return s
}

// LookupString is FirstString that reports a gap naming every candidate
// when none is usable.
func (r Record) LookupString(fields ...string) (string, error) {
	for _, f := range fields {
		if s, err := r.String(f); err == nil {
			return s, nil
		}
	}
	return "", gap(r.Key, fieldList(fields), GapMissing)
}

// FirstInt returns the first non-zero integer among fields.
func (r Record) FirstInt(fields ...string) int {
	for _, f := range fields {
		if n, err := r.Int(f); err == nil && n != 0 {
			return n
		}
	}
	return 0
}

// FirstFloat returns the first non-zero number among fields.
func (r Record) FirstFloat(fields ...string) float64 {
	for _, f := range fields {
		if n, err := r.Float(f); err == nil && n != 0 {
			return n
		}
	}
	return 0
}

// AnyTrue reports whether any of fields is boolean true.
func (r Record) AnyTrue(fields ...string) bool {
	for _, f := range fields {
		if b, err := r.Bool(f); err == nil && b {
			return true
		}
	}
	return false
}

// FirstStrings returns the first non-empty string array among fields.
func (r Record) FirstStrings(fields ...string) []string {
	for _, f := range fields {
		if s, err := r.Strings(f); err == nil {
			return s
		}
	}
	return nil
}

// FirstObjects returns the first present object array among fields.
func (r Record) FirstObjects(fields ...string) []Record {
	for _, f := range fields {
		if objs, err := r.Objects(f); err == nil && len(objs) > 0 {
			return objs
		}
	}
	return nil
}

// FirstNonEmpty returns the first value that is not the zero value of T.
func FirstNonEmpty[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	spaceRun   = regexp.MustCompile(`\s+`)
	digitGroup = regexp.MustCompile(`[\d,]+`)
)

// Sanitize strips HTML tags and collapses whitespace.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = htmlTag.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// ParseDigits reads the first digit group of s, ignoring thousands
// separators. "12,000원" yields 12000.
func ParseDigits(s string) (int, bool) {
	for _, m := range digitGroup.FindAllString(s, -1) {
		digits := strings.ReplaceAll(m, ",", "")
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

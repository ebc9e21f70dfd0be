package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Gap reasons.
const (
	GapMissing    = "missing"
	GapEmpty      = "empty"
	GapType       = "wrong type"
	GapUnresolved = "unresolved reference"
)

// ParseGap reports one absent or unusable field. It is recoverable:
// the caller substitutes a zero value and carries on.
type ParseGap struct {
	Key    string
	Field  string
	Reason string
}

// Error implements the error interface.
func (g *ParseGap) Error() string {
	return fmt.Sprintf("graph: %s.%s: %s", g.Key, g.Field, g.Reason)
}

// IsParseGap checks if an error is a parse gap.
func IsParseGap(err error) bool {
	var gap *ParseGap
	return errors.As(err, &gap)
}

func gap(key, field, reason string) *ParseGap {
	return &ParseGap{Key: key, Field: field, Reason: reason}
}

func fieldList(fields []string) string {
	return strings.Join(fields, "|")
}

// Gaps collects parse gaps during an extraction.
type Gaps []ParseGap

// Note records err if it is a parse gap and ignores anything else.
func (g *Gaps) Note(err error) {
	var pg *ParseGap
	if errors.As(err, &pg) {
		*g = append(*g, *pg)
	}
}

// Package gdid decodes "type:rawId" global document identifiers into
// listing ids.
package gdid

import (
	"strings"
	"sync"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
)

// Separator splits the type from the raw id.
const Separator = ":"

// PassthroughLookup resolves every N2/N3 id to itself.
type PassthroughLookup struct{}

// Lookup implements driven.IDLookup.
func (PassthroughLookup) Lookup(_ domain.GdidType, rawID string) (string, bool) {
	return rawID, true
}

// TableLookup resolves ids from a static "type:rawId" -> listing id table.
// Unmapped ids pass through unchanged when Fallthrough is set.
type TableLookup struct {
	Table       map[string]string
	Fallthrough bool
}

// Lookup implements driven.IDLookup.
func (l TableLookup) Lookup(t domain.GdidType, rawID string) (string, bool) {
	if id, ok := l.Table[Generate(rawID, t)]; ok {
		return id, true
	}
	if l.Fallthrough {
		return rawID, true
	}
	return "", false
}

// Parser decodes identifiers. N2/N3 resolutions are cached for the
// parser's lifetime. Safe for concurrent use.
type Parser struct {
	lookup driven.IDLookup

	mu    sync.RWMutex
	cache map[string]cached
}

type cached struct {
	id string
	ok bool
}

// NewParser creates a parser. A nil lookup defaults to PassthroughLookup.
func NewParser(lookup driven.IDLookup) *Parser {
	if lookup == nil {
		lookup = PassthroughLookup{}
	}
	return &Parser{
		lookup: lookup,
		cache:  make(map[string]cached),
	}
}

// Parse decodes raw. Malformed input yields Valid=false with RawID set
// to the input.
func (p *Parser) Parse(raw string) domain.Gdid {
	g := domain.Gdid{Raw: raw, RawID: raw}

	parts := strings.Split(raw, Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return g
	}

	g.Type = domain.GdidType(parts[0])
	g.RawID = parts[1]

	switch g.Type {
	case domain.GdidN1:
		g.ListingID = g.RawID
	case domain.GdidN2, domain.GdidN3:
		if id, ok := p.resolve(g.Type, g.RawID); ok {
			g.ListingID = id
		}
	}

	g.Valid = g.ListingID != ""
	return g
}

func (p *Parser) resolve(t domain.GdidType, rawID string) (string, bool) {
	key := Generate(rawID, t)

	p.mu.RLock()
	c, hit := p.cache[key]
	p.mu.RUnlock()
	if hit {
		return c.id, c.ok
	}

	id, ok := p.lookup.Lookup(t, rawID)

	p.mu.Lock()
	p.cache[key] = cached{id: id, ok: ok}
	p.mu.Unlock()
	return id, ok
}

// Generate formats an identifier.
func Generate(id string, t domain.GdidType) string {
	return string(t) + Separator + id
}

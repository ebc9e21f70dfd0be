// Package graph extracts typed records from the reference graph that
// place pages embed for client-side rendering.
//
// # Wire Shape
//
// The blob is a single JSON object. Entity keys are composite
// "EntityType:rawId" strings; query roots live under one root key
// (ROOT_QUERY) whose operation-keyed sub-objects hold arrays of
// {"__ref": "EntityType:rawId"} pointers. Schema names the root key,
// reference field and list prefixes so a change in the remote's shape is
// absorbed in one place.
//
// # Partial Success
//
// Entity types are matched by key prefix or substring through Selectors,
// not by a fixed schema, because the remote's internal type names drift.
// Absent or malformed fields never fail an extraction: accessors return a
// *ParseGap per field and the extractor substitutes the zero value,
// collecting the gaps for diagnostics.
//
// # Field Priority
//
// Fields that the remote exposes under several names are read through
// Record.FirstString and friends with the candidate names declared once,
// in priority order.
package graph

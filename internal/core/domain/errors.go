package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates settings that are rejected before any
	// network activity, such as a search depth outside its bounds.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoEmbeddedState indicates a fetched page carried no embedded
	// entity graph. Usually a blocked or partially rendered page.
	ErrNoEmbeddedState = errors.New("page has no embedded state")

	// ErrEmptyKeyword indicates a rank search was requested without a keyword.
	ErrEmptyKeyword = errors.New("empty keyword")

	// ErrEmptyTarget indicates a rank search or crawl without a listing id.
	ErrEmptyTarget = errors.New("empty target listing id")
)

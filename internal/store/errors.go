package store

import "errors"

// Failure classes surfaced by the store. Anything else returned from a store
// operation is a plain filesystem error wrapped with context.
var (
	// ErrNotFound means the id has no backing file.
	ErrNotFound = errors.New("dialog not found")

	// ErrParse means a file exists but is not a valid dialog record.
	ErrParse = errors.New("invalid dialog record")

	// ErrEmptyStore means no records exist for an operation that needs one.
	ErrEmptyStore = errors.New("no saved dialogs")

	// ErrInvalidID means an externally supplied id does not match the
	// generator's format and was rejected before path construction.
	ErrInvalidID = errors.New("invalid dialog id")
)

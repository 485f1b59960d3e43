package script

import "errors"

// Common errors for script parsing and storage.
var (
	// ErrEmptyScript is returned when the raw text holds no lines.
	ErrEmptyScript = errors.New("script text is empty")
	// ErrNotFound is returned when a stored script does not exist.
	ErrNotFound = errors.New("script not found")
	// ErrInvalidID is returned for IDs that cannot name a stored script.
	ErrInvalidID = errors.New("invalid script id")
)

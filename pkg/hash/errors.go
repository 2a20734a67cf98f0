package hash

import "errors"

// Common errors.
var (
	// ErrCast is returned when a value is requested as a Go type that does
	// not match its stored Type.
	ErrCast = errors.New("hash: cast error")
	// ErrNotFound is returned when a path or attribute does not exist.
	ErrNotFound = errors.New("hash: not found")
	// ErrUnsupportedType is returned when a Go value has no Type.
	ErrUnsupportedType = errors.New("hash: unsupported type")
)

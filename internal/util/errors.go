package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrInvalidBatchInput indicates a delimited batch argument that is too long,
	// has empty elements, or holds a value containing the delimiter
	ErrInvalidBatchInput = errors.New("invalid batch input")

	// ErrConstraint indicates a write rejected by a uniqueness, foreign key,
	// or not-null constraint
	ErrConstraint = errors.New("constraint violation")

	// ErrNotFound indicates a required row was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupported indicates an engine or operation is not supported
	ErrUnsupported = errors.New("unsupported")
)

package graph

import "errors"

// Sentinel errors for graph operations. Callers match them with errors.Is;
// the store wraps them with the offending ids.
var (
	// ErrValidation is returned for malformed input: a missing node
	// reference, a negative or non-finite weight, or a self-loop edge.
	ErrValidation = errors.New("validation error")

	// ErrConflict is returned when a rename would collide with an existing node.
	ErrConflict = errors.New("conflict")
)

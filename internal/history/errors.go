package history

import "errors"

// Domain-specific errors for history operations.
var (
	// ErrNotFound is returned when a sequence or stored settings do not exist.
	ErrNotFound = errors.New("history: not found")

	// ErrInvalidSequence is returned when a record lacks a sequence ID.
	ErrInvalidSequence = errors.New("history: sequence id is required")
)

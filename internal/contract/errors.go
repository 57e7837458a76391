package contract

import "errors"

// Sentinel errors of the pipeline.
var (
	// ErrInvalidConfiguration is returned for unrecognized methods or out of range parameters.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrLadderMismatch is returned when no alignment strategy reaches its acceptance score.
	ErrLadderMismatch = errors.New("ladder mismatch")
)

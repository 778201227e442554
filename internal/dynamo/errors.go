package dynamo

import "errors"

// Domain errors for trajectory integration.
var (
	// ErrUnknownParam indicates SetParam was called with a name the system does not have.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrDimensionMismatch indicates a start state that does not fit the system.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

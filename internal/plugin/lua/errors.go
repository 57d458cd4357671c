package lua

import "errors"

var (
	// ErrStateClosed is returned by calls on a closed State.
	ErrStateClosed = errors.New("script state closed")

	// ErrExecutionTimeout is returned when a script call outlives its
	// per-call deadline.
	ErrExecutionTimeout = errors.New("script call timed out")

	// ErrNotScript is returned by Load for a path without the .lua extension.
	ErrNotScript = errors.New("not a lua script")
)

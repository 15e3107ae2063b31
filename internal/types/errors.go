package types

import "errors"

var (
	// ErrInvalidOperation reports malformed arguments: a merge of fewer than two
	// clusters, an empty split, an unknown metadata property.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrUnknownCluster reports a reference to a cluster id that is not live.
	ErrUnknownCluster = errors.New("unknown cluster")
	// ErrOutOfRange reports a spike id outside [0, N).
	ErrOutOfRange = errors.New("spike out of range")
	// ErrNoMoreHistory is returned by undo/redo at either end of the history.
	// It is an expected condition, not a failure.
	ErrNoMoreHistory = errors.New("no more history")
	// ErrNotLoaded reports an operation on a session that has no data yet.
	ErrNotLoaded = errors.New("session not loaded")
)

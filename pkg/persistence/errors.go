// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrCheckpointNotFound indicates no checkpoint exists for the thread.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrSequenceGap indicates a checkpoint was saved out of order; per
	// thread, sequence numbers must be contiguous from 0.
	ErrSequenceGap = errors.New("checkpoint sequence gap")

	// ErrDuplicateSequence indicates a checkpoint with the same sequence
	// number was already written for the thread.
	ErrDuplicateSequence = errors.New("duplicate checkpoint sequence")
)

// CheckpointError wraps checkpoint operation failures with context.
type CheckpointError struct {
	Op       string
	ThreadID string
	Err      error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("%s failed for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}

func (e *CheckpointError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewCheckpointError creates a checkpoint error with context.
func NewCheckpointError(op, threadID string, err error) *CheckpointError {
	return &CheckpointError{Op: op, ThreadID: threadID, Err: err}
}

// IsCheckpointNotFound checks whether an error means no checkpoint exists.
func IsCheckpointNotFound(err error) bool {
	return errors.Is(err, ErrCheckpointNotFound)
}

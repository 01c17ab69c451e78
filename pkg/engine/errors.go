// Package engine runs workflow instances through their graphs, one node at a
// time, checkpointing after every completed node.
package engine

import (
	"errors"
	"fmt"
)

// ErrCheckpointWrite indicates a node completed but its checkpoint could not
// be durably recorded. The executor never advances past such a node.
var ErrCheckpointWrite = errors.New("checkpoint write failed")

// TransientError marks a failure as retryable (store/network timeouts).
// Anything not wrapped in it is treated as fatal to the instance.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps an error as retryable. Returns nil for a nil error.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &TransientError{Err: err}
}

// IsTransient reports whether the error chain contains a TransientError.
func IsTransient(err error) bool {
	var te *TransientError

	return errors.As(err, &te)
}

// NodeError carries the failing node id alongside the cause.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s failed: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

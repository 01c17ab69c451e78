package scheduler

import "errors"

var (
	// ErrLeaseHeld is returned when another run already owns a thread's lease.
	ErrLeaseHeld = errors.New("thread lease is held by another run")

	// ErrBackpressure is returned when a workflow type is at its concurrency
	// ceiling and the trigger is shed instead of queued.
	ErrBackpressure = errors.New("workflow concurrency limit reached")

	// ErrUnknownWorkflow is returned for workflow types the catalog does not
	// provide a graph for.
	ErrUnknownWorkflow = errors.New("unknown workflow type")

	// ErrStopped is returned when a trigger arrives after Stop.
	ErrStopped = errors.New("scheduler is stopped")
)

package models

import "time"

// Checkpoint is a durable snapshot of execution state taken after a completed
// node. Per thread, sequence numbers are contiguous from 0; the checkpoint
// history is the sole source of truth for recovery.
type Checkpoint struct {
	ThreadID   string          `json:"thread_id"`
	SequenceNo int             `json:"sequence_no"`
	State      *ExecutionState `json:"state"`
	WrittenAt  time.Time       `json:"written_at"`
}

// Package web exposes the HTTP surface of the analytics engine: triggering
// runs, inspecting checkpoint histories and reading recorded alerts.
package web

import (
	"time"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// StartRunRequest triggers one workflow run for an entity.
type StartRunRequest struct {
	WorkflowType string         `json:"workflow_type" validate:"required,oneof=peak_hour overcrowding queue demographics popularity"`
	EntityID     string         `json:"entity_id"     validate:"required,min=1,max=128"`
	Payload      map[string]any `json:"payload"`
}

// StartRunResponse returns the thread the trigger resolved to.
type StartRunResponse struct {
	ThreadID  string `json:"thread_id"`
	Coalesced bool   `json:"coalesced,omitempty"`
}

// CheckpointResponse is one entry of a thread's checkpoint history.
type CheckpointResponse struct {
	ThreadID   string                 `json:"thread_id"`
	SequenceNo int                    `json:"sequence_no"`
	WrittenAt  time.Time              `json:"written_at"`
	State      *models.ExecutionState `json:"state"`
}

// RunStatusResponse summarizes the latest checkpoint of a thread.
type RunStatusResponse struct {
	ThreadID     string        `json:"thread_id"`
	Status       models.Status `json:"status"`
	SequenceNo   int           `json:"sequence_no"`
	NextNode     string        `json:"next_node"`
	ErrorMessage string        `json:"error_message,omitempty"`
	AlertCount   int           `json:"alert_count"`
}

func newCheckpointResponse(cp *models.Checkpoint) CheckpointResponse {
	return CheckpointResponse{
		ThreadID:   cp.ThreadID,
		SequenceNo: cp.SequenceNo,
		WrittenAt:  cp.WrittenAt,
		State:      cp.State,
	}
}

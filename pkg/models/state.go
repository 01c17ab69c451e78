// Package models defines the core domain models for the camera analytics engine.
package models

import (
	"fmt"
	"maps"
)

// WorkflowType identifies one of the shipped analytics workflows.
type WorkflowType string

const (
	WorkflowPeakHour     WorkflowType = "peak_hour"
	WorkflowOvercrowding WorkflowType = "overcrowding"
	WorkflowQueue        WorkflowType = "queue"
	WorkflowDemographics WorkflowType = "demographics"
	WorkflowPopularity   WorkflowType = "popularity"
)

// Status represents the lifecycle state of one workflow run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSuspended Status = "suspended"
)

// ThreadID derives the stable identifier of one workflow run. The same
// (workflow, entity, run index) triple always maps to the same thread, which
// is what makes interrupted runs resumable.
func ThreadID(workflowType WorkflowType, entityID, runIndex string) string {
	return fmt.Sprintf("%s-%s-%s", workflowType, entityID, runIndex)
}

// ExecutionState is the versioned record threaded through one workflow run.
// It is mutated only by applying node patches; everything needed to resume a
// run after a crash is inside it.
type ExecutionState struct {
	WorkflowType WorkflowType   `json:"workflow_type"`
	EntityID     string         `json:"entity_id"`
	ThreadID     string         `json:"thread_id"`
	SequenceNo   int            `json:"sequence_no"`
	NextNode     string         `json:"next_node"`
	Variables    map[string]any `json:"variables"`
	Alerts       []Alert        `json:"alerts"`
	Trace        []string       `json:"trace"`
	Status       Status         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// NewExecutionState creates a fresh state positioned at the graph start.
func NewExecutionState(workflowType WorkflowType, entityID, threadID string, variables map[string]any) *ExecutionState {
	if variables == nil {
		variables = make(map[string]any)
	}

	return &ExecutionState{
		WorkflowType: workflowType,
		EntityID:     entityID,
		ThreadID:     threadID,
		Variables:    variables,
		Alerts:       []Alert{},
		Trace:        []string{},
		Status:       StatusRunning,
	}
}

// StatePatch is the set of changes a node returns. Variables are merged over
// the existing mapping; alerts and trace entries are appended in order.
type StatePatch struct {
	Variables map[string]any
	Alerts    []Alert
	Trace     []string
}

// Apply merges a patch into the state.
func (s *ExecutionState) Apply(patch StatePatch) {
	if s.Variables == nil {
		s.Variables = make(map[string]any)
	}

	maps.Copy(s.Variables, patch.Variables)
	s.Alerts = append(s.Alerts, patch.Alerts...)
	s.Trace = append(s.Trace, patch.Trace...)
}

// Clone returns a deep copy suitable for checkpoint snapshots, so later
// in-memory mutation cannot reach back into a persisted checkpoint.
func (s *ExecutionState) Clone() *ExecutionState {
	clone := *s
	clone.Variables = maps.Clone(s.Variables)
	clone.Alerts = make([]Alert, len(s.Alerts))
	clone.Trace = append([]string(nil), s.Trace...)

	for i, alert := range s.Alerts {
		clone.Alerts[i] = alert
		clone.Alerts[i].Metadata = maps.Clone(alert.Metadata)
	}

	return &clone
}

// Int reads a numeric variable. Values round-trip through JSON checkpoints,
// so a count written as int may come back as float64.
func (s *ExecutionState) Int(name string) int {
	switch v := s.Variables[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Float reads a floating point variable, tolerating integer encodings.
func (s *ExecutionState) Float(name string) float64 {
	switch v := s.Variables[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// String reads a string variable, returning "" when absent.
func (s *ExecutionState) String(name string) string {
	v, _ := s.Variables[name].(string)

	return v
}

// Bool reads a boolean variable, returning false when absent.
func (s *ExecutionState) Bool(name string) bool {
	v, _ := s.Variables[name].(bool)

	return v
}

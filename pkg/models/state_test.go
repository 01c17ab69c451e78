package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadIDDeterministic(t *testing.T) {
	first := ThreadID(WorkflowPeakHour, "CAM_001", "2025090114")
	second := ThreadID(WorkflowPeakHour, "CAM_001", "2025090114")

	assert.Equal(t, first, second)
	assert.Equal(t, "peak_hour-CAM_001-2025090114", first)
	assert.NotEqual(t, first, ThreadID(WorkflowPeakHour, "CAM_002", "2025090114"))
	assert.NotEqual(t, first, ThreadID(WorkflowQueue, "CAM_001", "2025090114"))
}

func TestApplyPatchMergesAndAppends(t *testing.T) {
	state := NewExecutionState(WorkflowOvercrowding, "entrance", "t-1", map[string]any{
		"person_count": 10,
	})

	state.Apply(StatePatch{
		Variables: map[string]any{"person_count": 320, "ratio": 2.13},
		Alerts: []Alert{{
			AlertType: "overcrowding",
			Severity:  SeverityCritical,
			EntityID:  "entrance",
			Timestamp: time.Now(),
		}},
		Trace: []string{"assessed occupancy"},
	})

	assert.Equal(t, 320, state.Int("person_count"))
	assert.InDelta(t, 2.13, state.Float("ratio"), 0.0001)
	assert.Len(t, state.Alerts, 1)
	assert.Equal(t, []string{"assessed occupancy"}, state.Trace)
}

func TestCloneIsIndependent(t *testing.T) {
	state := NewExecutionState(WorkflowQueue, "checkout", "t-2", map[string]any{"people": 5})
	state.Apply(StatePatch{Alerts: []Alert{{
		AlertType: "queue_buildup",
		Metadata:  map[string]any{"people_in_queue": 5},
	}}})

	clone := state.Clone()
	state.Variables["people"] = 50
	state.Alerts[0].Metadata["people_in_queue"] = 50
	state.Trace = append(state.Trace, "mutated")

	assert.Equal(t, 5, clone.Int("people"))
	assert.Equal(t, 5, clone.Alerts[0].Metadata["people_in_queue"])
	assert.Empty(t, clone.Trace)
}

func TestVariableAccessorsSurviveJSONRoundTrip(t *testing.T) {
	state := NewExecutionState(WorkflowPeakHour, "CAM_001", "t-3", map[string]any{
		"person_count": 180,
		"ratio":        1.2,
		"is_peak":      true,
		"band":         "peak",
	})

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var decoded ExecutionState

	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, 180, decoded.Int("person_count"))
	assert.InDelta(t, 1.2, decoded.Float("ratio"), 0.0001)
	assert.True(t, decoded.Bool("is_peak"))
	assert.Equal(t, "peak", decoded.String("band"))
	assert.Zero(t, decoded.Int("missing"))
}

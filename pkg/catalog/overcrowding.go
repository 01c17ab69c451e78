package catalog

import (
	"context"
	"fmt"

	"github.com/vallabhn1/MallCCTV/pkg/detection"
	"github.com/vallabhn1/MallCCTV/pkg/engine"
	"github.com/vallabhn1/MallCCTV/pkg/graph"
	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// Realtime occupancy check per zone: compare the current unique-person count
// against the zone capacity and alert when it is exceeded. Normal occupancy
// ends the run without emitting anything.
func buildOvercrowding(deps *Deps) (*graph.Definition, error) {
	return graph.NewBuilder(models.WorkflowOvercrowding).
		AddNode(&occupancyNode{deps: deps}).
		AddNode(&overcrowdingAlertNode{deps: deps}).
		SetStart("occupancy").
		AddEdge("occupancy", graph.EndID).
		AddBranch("occupancy", "over", "alert").
		AddEdge("alert", graph.EndID).
		Build()
}

type occupancyNode struct{ deps *Deps }

func (n *occupancyNode) ID() string { return "occupancy" }

// Execute reads the person count from the trigger payload when the detection
// batch carried one, otherwise counts unique people in the recent window.
func (n *occupancyNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	count := state.Int("person_count")
	if _, overridden := state.Variables["person_count"]; !overridden {
		now := n.deps.now()

		records, err := queryDetections(ctx, n.deps.Detections, state.EntityID, detection.Window{From: now.Add(-overcrowdingWindow), To: now})
		if err != nil {
			return models.StatePatch{}, graph.Routing{}, err
		}

		count = detection.UniquePeople(records, n.deps.Config.DedupDivisor)
	}

	threshold := n.deps.Config.ZoneThreshold(state.EntityID)
	if threshold <= 0 {
		return models.StatePatch{}, graph.Routing{}, fmt.Errorf("no occupancy threshold configured for zone %q", state.EntityID)
	}

	ratio := models.Ratio(float64(count), float64(threshold))

	patch := models.StatePatch{
		Variables: map[string]any{
			"person_count": count,
			"threshold":    threshold,
			"ratio":        ratio,
		},
		Trace: []string{fmt.Sprintf("occupancy %d/%d (%.2fx)", count, threshold, ratio)},
	}

	if count > threshold {
		return patch, graph.Branch("over"), nil
	}

	return patch, graph.End(), nil
}

type overcrowdingAlertNode struct{ deps *Deps }

func (n *overcrowdingAlertNode) ID() string { return "alert" }

func (n *overcrowdingAlertNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	count := state.Int("person_count")
	threshold := state.Int("threshold")
	ratio := state.Float("ratio")
	severity := models.ClassifySeverity(float64(count), float64(threshold))

	alert := models.Alert{
		AlertType: "overcrowding",
		Severity:  severity,
		EntityID:  state.EntityID,
		Timestamp: n.deps.now(),
		Metadata: map[string]any{
			"person_count":   count,
			"threshold":      threshold,
			"ratio":          ratio,
			"message":        fmt.Sprintf("Overcrowding: %d people vs capacity %d (%.2fx)", count, threshold, ratio),
			"recommendation": "Restrict entry and guide visitors to less crowded zones",
		},
	}

	row := &models.AnalyticsRow{
		Kind:      "overcrowding",
		EntityID:  state.EntityID,
		Timestamp: n.deps.now(),
		Fields: map[string]any{
			"person_count": count,
			"threshold":    threshold,
			"ratio":        ratio,
			"severity":     string(severity),
		},
	}

	if err := n.deps.Analytics.InsertAnalytics(ctx, row); err != nil {
		return models.StatePatch{}, graph.Routing{}, engine.Transient(fmt.Errorf("insert overcrowding analytics: %w", err))
	}

	return models.StatePatch{
		Alerts: []models.Alert{alert},
		Trace:  []string{fmt.Sprintf("overcrowding alert raised: severity=%s", severity)},
	}, graph.End(), nil
}

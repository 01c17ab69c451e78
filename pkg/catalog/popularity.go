package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/vallabhn1/MallCCTV/pkg/counters"
	"github.com/vallabhn1/MallCCTV/pkg/detection"
	"github.com/vallabhn1/MallCCTV/pkg/engine"
	"github.com/vallabhn1/MallCCTV/pkg/graph"
	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// Hourly zone popularity: count unique visitors per zone, tally busy hours
// in the counter cache, and annotate hotspot zones for the heatmap export.
func buildPopularity(deps *Deps) (*graph.Definition, error) {
	return graph.NewBuilder(models.WorkflowPopularity).
		AddNode(&popularityCollectNode{deps: deps}).
		AddNode(&popularityHeatmapNode{deps: deps}).
		AddNode(&popularityRecordNode{deps: deps}).
		SetStart("collect").
		AddEdge("collect", "record").
		AddBranch("collect", "hotspot", "heatmap").
		AddEdge("heatmap", "record").
		AddEdge("record", graph.EndID).
		Build()
}

type popularityCollectNode struct{ deps *Deps }

func (n *popularityCollectNode) ID() string { return "collect" }

func (n *popularityCollectNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	visits := state.Int("visits")
	if _, overridden := state.Variables["visits"]; !overridden {
		hourEnd := n.deps.now().Truncate(time.Hour)

		records, err := queryDetections(ctx, n.deps.Detections, state.EntityID, detection.Window{From: hourEnd.Add(-time.Hour), To: hourEnd})
		if err != nil {
			return models.StatePatch{}, graph.Routing{}, err
		}

		visits = detection.UniquePeople(records, n.deps.Config.DedupDivisor)
	}

	ratio := models.Ratio(float64(visits), float64(n.deps.Config.PeakThreshold))

	patch := models.StatePatch{
		Variables: map[string]any{
			"visits": visits,
			"ratio":  ratio,
		},
		Trace: []string{fmt.Sprintf("zone visits=%d (%.2fx of peak threshold)", visits, ratio)},
	}

	if visits > n.deps.Config.PeakThreshold {
		return patch, graph.Branch("hotspot"), nil
	}

	return patch, graph.Continue(), nil
}

type popularityHeatmapNode struct{ deps *Deps }

func (n *popularityHeatmapNode) ID() string { return "heatmap" }

// Execute marks the zone as a hotspot and bumps its busy-hour tally.
func (n *popularityHeatmapNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	if _, err := n.deps.Counters.Increment(ctx, counters.ZoneVisitsKey(state.EntityID, n.deps.now())); err != nil {
		n.deps.Logger.Warn("Failed to increment zone visits counter", "entity_id", state.EntityID, "error", err)
	}

	return models.StatePatch{
		Variables: map[string]any{
			"hotspot":   true,
			"intensity": state.Float("ratio"),
		},
	}, graph.Continue(), nil
}

type popularityRecordNode struct{ deps *Deps }

func (n *popularityRecordNode) ID() string { return "record" }

func (n *popularityRecordNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	row := &models.AnalyticsRow{
		Kind:      "popularity",
		EntityID:  state.EntityID,
		Timestamp: n.deps.now(),
		Fields: map[string]any{
			"visits":    state.Int("visits"),
			"ratio":     state.Float("ratio"),
			"hotspot":   state.Bool("hotspot"),
			"intensity": state.Float("intensity"),
		},
	}

	if err := n.deps.Analytics.InsertAnalytics(ctx, row); err != nil {
		return models.StatePatch{}, graph.Routing{}, engine.Transient(fmt.Errorf("insert popularity analytics: %w", err))
	}

	return models.StatePatch{}, graph.End(), nil
}

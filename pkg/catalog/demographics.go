package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/vallabhn1/MallCCTV/pkg/detection"
	"github.com/vallabhn1/MallCCTV/pkg/engine"
	"github.com/vallabhn1/MallCCTV/pkg/graph"
	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// Daily demographics rollup per camera: tally detections by class over the
// previous day and record the distribution. Reporting only, no alerts.
func buildDemographics(deps *Deps) (*graph.Definition, error) {
	return graph.NewBuilder(models.WorkflowDemographics).
		AddNode(&demoSampleNode{deps: deps}).
		AddNode(&demoDistributionNode{deps: deps}).
		AddNode(&demoRecordNode{deps: deps}).
		SetStart("sample").
		AddEdge("sample", "distribution").
		AddEdge("distribution", "record").
		AddEdge("record", graph.EndID).
		Build()
}

type demoSampleNode struct{ deps *Deps }

func (n *demoSampleNode) ID() string { return "sample" }

func (n *demoSampleNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	dayEnd := n.deps.now().Truncate(24 * time.Hour)
	dayStart := dayEnd.Add(-24 * time.Hour)

	records, err := queryDetections(ctx, n.deps.Detections, state.EntityID, detection.Window{From: dayStart, To: dayEnd})
	if err != nil {
		return models.StatePatch{}, graph.Routing{}, err
	}

	counts := detection.CountByClass(records)

	total := 0
	for _, count := range counts {
		total += count
	}

	classCounts := make(map[string]any, len(counts))
	for class, count := range counts {
		classCounts[class] = count
	}

	return models.StatePatch{
		Variables: map[string]any{
			"day":          dayStart.Format("2006-01-02"),
			"class_counts": classCounts,
			"total":        total,
		},
		Trace: []string{fmt.Sprintf("sampled %d detections across %d classes", total, len(counts))},
	}, graph.Continue(), nil
}

type demoDistributionNode struct{ deps *Deps }

func (n *demoDistributionNode) ID() string { return "distribution" }

// Execute converts class counts into percentage shares and picks the
// dominant class.
func (n *demoDistributionNode) Execute(_ context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	counts, _ := state.Variables["class_counts"].(map[string]any)
	total := state.Int("total")

	distribution := make(map[string]any, len(counts))
	dominant := ""
	dominantCount := 0

	for class, raw := range counts {
		count := 0

		switch v := raw.(type) {
		case int:
			count = v
		case float64:
			count = int(v)
		}

		if total > 0 {
			distribution[class] = round2(float64(count) / float64(total) * 100)
		}

		if count > dominantCount {
			dominant = class
			dominantCount = count
		}
	}

	return models.StatePatch{
		Variables: map[string]any{
			"distribution":   distribution,
			"dominant_class": dominant,
		},
	}, graph.Continue(), nil
}

type demoRecordNode struct{ deps *Deps }

func (n *demoRecordNode) ID() string { return "record" }

func (n *demoRecordNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	row := &models.AnalyticsRow{
		Kind:      "demographics",
		EntityID:  state.EntityID,
		Timestamp: n.deps.now(),
		Fields: map[string]any{
			"day":            state.String("day"),
			"total":          state.Int("total"),
			"class_counts":   state.Variables["class_counts"],
			"distribution":   state.Variables["distribution"],
			"dominant_class": state.String("dominant_class"),
		},
	}

	if err := n.deps.Analytics.InsertAnalytics(ctx, row); err != nil {
		return models.StatePatch{}, graph.Routing{}, engine.Transient(fmt.Errorf("insert demographics analytics: %w", err))
	}

	return models.StatePatch{}, graph.End(), nil
}

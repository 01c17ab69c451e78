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

// Hourly visitor banding per camera: count unique people for the last full
// hour, band against absolute peak/low thresholds, forecast the next hour on
// peaks, and record the hourly analytics row.
func buildPeakHour(deps *Deps) (*graph.Definition, error) {
	return graph.NewBuilder(models.WorkflowPeakHour).
		AddNode(&peakAggregateNode{deps: deps}).
		AddNode(&peakClassifyNode{deps: deps}).
		AddNode(&peakForecastNode{deps: deps}).
		AddNode(&peakRecordNode{deps: deps}).
		SetStart("aggregate").
		AddEdge("aggregate", "detect_peaks").
		AddEdge("detect_peaks", "record").
		AddBranch("detect_peaks", "peak", "forecast").
		AddEdge("forecast", "record").
		AddEdge("record", graph.EndID).
		Build()
}

type peakAggregateNode struct{ deps *Deps }

func (n *peakAggregateNode) ID() string { return "aggregate" }

// Execute counts unique visitors for the last full hour and builds the
// 24-hour history used by the forecast.
func (n *peakAggregateNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	hourEnd := n.deps.now().Truncate(time.Hour)
	hourStart := hourEnd.Add(-time.Hour)

	count := state.Int("visitor_count")
	if _, overridden := state.Variables["visitor_count"]; !overridden {
		records, err := queryDetections(ctx, n.deps.Detections, state.EntityID, detection.Window{From: hourStart, To: hourEnd})
		if err != nil {
			return models.StatePatch{}, graph.Routing{}, err
		}

		count = detection.UniquePeople(records, n.deps.Config.DedupDivisor)
	}

	history := make([]int, 0, 24)

	for i := 24; i >= 1; i-- {
		from := hourStart.Add(-time.Duration(i) * time.Hour)

		records, err := queryDetections(ctx, n.deps.Detections, state.EntityID, detection.Window{From: from, To: from.Add(time.Hour)})
		if err != nil {
			return models.StatePatch{}, graph.Routing{}, err
		}

		history = append(history, detection.UniquePeople(records, n.deps.Config.DedupDivisor))
	}

	return models.StatePatch{
		Variables: map[string]any{
			"visitor_count":  count,
			"hour":           hourStart.Format(time.RFC3339),
			"hourly_history": history,
		},
		Trace: []string{fmt.Sprintf("aggregated %d unique visitors for hour %s", count, hourStart.Format("15:04"))},
	}, graph.Continue(), nil
}

type peakClassifyNode struct{ deps *Deps }

func (n *peakClassifyNode) ID() string { return "detect_peaks" }

func (n *peakClassifyNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	count := state.Int("visitor_count")
	band, severity := models.ClassifyHourly(count, n.deps.Config.PeakThreshold, n.deps.Config.LowThreshold)

	patch := models.StatePatch{
		Variables: map[string]any{
			"band":    string(band),
			"is_peak": band == models.BandPeak,
			"is_low":  band == models.BandLow,
		},
	}

	switch band {
	case models.BandPeak:
		patch.Alerts = []models.Alert{{
			AlertType: "peak_hour",
			Severity:  severity,
			EntityID:  state.EntityID,
			Timestamp: n.deps.now(),
			Metadata: map[string]any{
				"visitor_count":  count,
				"threshold":      n.deps.Config.PeakThreshold,
				"message":        fmt.Sprintf("Peak hour! %d visitors", count),
				"recommendation": "Activate additional staff, open all checkout counters, enable express lanes",
			},
		}}

		if _, err := n.deps.Counters.Increment(ctx, counters.PeakHoursKey(n.deps.now())); err != nil {
			n.deps.Logger.Warn("Failed to increment peak hours counter", "entity_id", state.EntityID, "error", err)
		}

		return patch, graph.Branch("peak"), nil
	case models.BandLow:
		patch.Alerts = []models.Alert{{
			AlertType: "low_hour",
			Severity:  severity,
			EntityID:  state.EntityID,
			Timestamp: n.deps.now(),
			Metadata: map[string]any{
				"visitor_count":  count,
				"threshold":      n.deps.Config.LowThreshold,
				"message":        fmt.Sprintf("Low hour: %d visitors (below %d)", count, n.deps.Config.LowThreshold),
				"recommendation": "Energy-saving mode, minimal staff required",
			},
		}}
	case models.BandNormal:
	}

	return patch, graph.Continue(), nil
}

type peakForecastNode struct{ deps *Deps }

func (n *peakForecastNode) ID() string { return "forecast" }

// Execute estimates next-hour visitors as the average of the last three
// hourly counts.
func (n *peakForecastNode) Execute(_ context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	history := intSlice(state.Variables["hourly_history"])

	forecast := 0

	if len(history) > 0 {
		tail := history
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}

		sum := 0
		for _, count := range tail {
			sum += count
		}

		forecast = sum / len(tail)
	}

	return models.StatePatch{
		Variables: map[string]any{"forecast_next": forecast},
		Trace:     []string{fmt.Sprintf("forecast next hour: %d visitors", forecast)},
	}, graph.Continue(), nil
}

type peakRecordNode struct{ deps *Deps }

func (n *peakRecordNode) ID() string { return "record" }

func (n *peakRecordNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	row := &models.AnalyticsRow{
		Kind:      "peak_hour",
		EntityID:  state.EntityID,
		Timestamp: n.deps.now(),
		Fields: map[string]any{
			"hour":          state.String("hour"),
			"visitor_count": state.Int("visitor_count"),
			"is_peak":       state.Bool("is_peak"),
			"forecast_next": state.Int("forecast_next"),
		},
	}

	if err := n.deps.Analytics.InsertAnalytics(ctx, row); err != nil {
		return models.StatePatch{}, graph.Routing{}, engine.Transient(fmt.Errorf("insert peak hour analytics: %w", err))
	}

	return models.StatePatch{}, graph.End(), nil
}

package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/vallabhn1/MallCCTV/pkg/detection"
	"github.com/vallabhn1/MallCCTV/pkg/engine"
	"github.com/vallabhn1/MallCCTV/pkg/graph"
	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// Queue statuses in increasing order of concern.
const (
	queueStatusShort    = "short"
	queueStatusMedium   = "medium"
	queueStatusLong     = "long"
	queueStatusCritical = "critical"
)

// Sampled queue monitoring per checkout line: count people in the queue,
// estimate wait time from recent throughput, and alert on buildup, critical
// length, high wait or a slow-moving line.
func buildQueue(deps *Deps) (*graph.Definition, error) {
	return graph.NewBuilder(models.WorkflowQueue).
		AddNode(&queueDetectNode{deps: deps}).
		AddNode(&queueWaitNode{deps: deps}).
		AddNode(&queueThresholdNode{deps: deps}).
		AddNode(&queueNotifyNode{deps: deps}).
		SetStart("detect_queue").
		AddEdge("detect_queue", "estimate_wait").
		AddEdge("estimate_wait", "check_thresholds").
		AddEdge("check_thresholds", graph.EndID).
		AddBranch("check_thresholds", "alert", "notify").
		AddEdge("notify", graph.EndID).
		Build()
}

type queueDetectNode struct{ deps *Deps }

func (n *queueDetectNode) ID() string { return "detect_queue" }

func (n *queueDetectNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	people := state.Int("queue_people")
	if _, overridden := state.Variables["queue_people"]; !overridden {
		now := n.deps.now()

		records, err := queryDetections(ctx, n.deps.Detections, state.EntityID, detection.Window{From: now.Add(-queueWindow), To: now})
		if err != nil {
			return models.StatePatch{}, graph.Routing{}, err
		}

		people = detection.UniquePeople(records, n.deps.Config.DedupDivisor)
	}

	lengthMeters := round2(float64(people) * n.deps.Config.Queue.MetersPerPerson)

	return models.StatePatch{
		Variables: map[string]any{
			"queue_people":   people,
			"queue_length_m": lengthMeters,
		},
		Trace: []string{fmt.Sprintf("queue detect: people=%d, est_length=%.2fm", people, lengthMeters)},
	}, graph.Continue(), nil
}

type queueWaitNode struct{ deps *Deps }

func (n *queueWaitNode) ID() string { return "estimate_wait" }

// Execute approximates throughput from unique people over a longer window
// and derives the expected wait for the current queue population.
func (n *queueWaitNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	throughput := state.Float("throughput_per_minute")
	if _, overridden := state.Variables["throughput_per_minute"]; !overridden {
		now := n.deps.now()

		records, err := queryDetections(ctx, n.deps.Detections, state.EntityID, detection.Window{From: now.Add(-throughputWindow), To: now})
		if err != nil {
			return models.StatePatch{}, graph.Routing{}, err
		}

		customers := detection.UniquePeople(records, n.deps.Config.DedupDivisor)
		throughput = round2(float64(customers) / throughputWindow.Minutes())
	}

	people := state.Int("queue_people")

	var waitSeconds float64
	if throughput > 0 {
		waitSeconds = round2(float64(people) / throughput * 60)
	} else {
		// An empty throughput window means nobody is moving.
		waitSeconds = float64(2 * n.deps.Config.Queue.WaitTimeHighSeconds)
	}

	return models.StatePatch{
		Variables: map[string]any{
			"throughput_per_minute": throughput,
			"wait_seconds":          waitSeconds,
		},
		Trace: []string{fmt.Sprintf("throughput=%.2f ppl/min, wait≈%.1fs", throughput, waitSeconds)},
	}, graph.Continue(), nil
}

type queueThresholdNode struct{ deps *Deps }

func (n *queueThresholdNode) ID() string { return "check_thresholds" }

// Execute decides the queue status and, when a threshold trips, routes to
// the notify node with the decision in the state.
func (n *queueThresholdNode) Execute(_ context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	people := state.Int("queue_people")
	waitSeconds := state.Float("wait_seconds")
	throughput := state.Float("throughput_per_minute")
	cfg := n.deps.Config.Queue

	status := queueStatusShort
	alertType := ""
	severity := models.SeverityLow
	recommendation := ""

	switch {
	case people >= cfg.CriticalThreshold:
		status = queueStatusCritical
		alertType = "queue_critical"
		severity = models.SeverityHigh
		recommendation = "Open all counters and deploy staff to manage queue"
	case people >= cfg.BuildupThreshold:
		status = queueStatusLong
		alertType = "queue_buildup"
		severity = models.SeverityMedium
		recommendation = "Open additional checkout counter or redirect customers"
	case waitSeconds >= float64(cfg.WaitTimeHighSeconds) && people > 0:
		status = queueStatusLong
		alertType = "wait_time_high"
		severity = models.SeverityMedium
		recommendation = "Activate proactive queue management and announcements"
	case throughput < float64(cfg.ThroughputLowPerMinute) && people > 0:
		status = queueStatusMedium
		alertType = "queue_moving_slow"
		severity = models.SeverityLow
		recommendation = "Expedite current transactions; check for blockers"
	}

	patch := models.StatePatch{
		Variables: map[string]any{"queue_status": status},
	}

	if alertType == "" {
		return patch, graph.End(), nil
	}

	patch.Variables["queue_alert_type"] = alertType
	patch.Variables["queue_severity"] = string(severity)
	patch.Variables["queue_recommendation"] = recommendation

	return patch, graph.Branch("alert"), nil
}

type queueNotifyNode struct{ deps *Deps }

func (n *queueNotifyNode) ID() string { return "notify" }

func (n *queueNotifyNode) Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	people := state.Int("queue_people")
	waitSeconds := state.Float("wait_seconds")
	throughput := state.Float("throughput_per_minute")
	status := state.String("queue_status")

	alert := models.Alert{
		AlertType: state.String("queue_alert_type"),
		Severity:  models.Severity(state.String("queue_severity")),
		EntityID:  state.EntityID,
		Timestamp: n.deps.now(),
		Metadata: map[string]any{
			"people_in_queue":       people,
			"queue_length_m":        state.Float("queue_length_m"),
			"wait_seconds":          waitSeconds,
			"throughput_per_minute": throughput,
			"status":                status,
			"message":               fmt.Sprintf("Queue alert [%s]: %d in queue, wait≈%.1fs, thr≈%.2f/min", strings.ToUpper(status), people, waitSeconds, throughput),
			"recommendation":        state.String("queue_recommendation"),
		},
	}

	row := &models.AnalyticsRow{
		Kind:      "queue",
		EntityID:  state.EntityID,
		Timestamp: n.deps.now(),
		Fields: map[string]any{
			"people_in_queue":       people,
			"wait_seconds":          waitSeconds,
			"throughput_per_minute": throughput,
			"status":                status,
		},
	}

	if err := n.deps.Analytics.InsertAnalytics(ctx, row); err != nil {
		return models.StatePatch{}, graph.Routing{}, engine.Transient(fmt.Errorf("insert queue analytics: %w", err))
	}

	return models.StatePatch{
		Alerts: []models.Alert{alert},
		Trace:  []string{fmt.Sprintf("queue alert raised: type=%s status=%s", alert.AlertType, status)},
	}, graph.End(), nil
}

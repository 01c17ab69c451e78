package catalog

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vallabhn1/MallCCTV/pkg/counters"
	"github.com/vallabhn1/MallCCTV/pkg/detection"
	"github.com/vallabhn1/MallCCTV/pkg/engine"
	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/persistence"
	"github.com/vallabhn1/MallCCTV/pkg/persistence/file"
)

type harness struct {
	catalog  *Catalog
	executor *engine.Executor
	store    persistence.Persistence
	source   *detection.MemorySource
	counter  *counters.MemoryCounter
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	source := detection.NewMemorySource()
	counter := counters.NewMemoryCounter()
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	catalog, err := NewCatalog(Deps{
		Logger:     slog.Default(),
		Detections: source,
		Analytics:  store,
		Counters:   counter,
		Config:     DefaultConfig(),
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	retry := engine.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	return &harness{
		catalog:  catalog,
		executor: engine.NewExecutor(slog.Default(), store, store, nil, retry),
		store:    store,
		source:   source,
		counter:  counter,
		now:      now,
	}
}

func (h *harness) run(t *testing.T, workflowType models.WorkflowType, entityID string, payload map[string]any) *models.ExecutionState {
	t.Helper()

	threadID := models.ThreadID(workflowType, entityID, "test-run")

	state, err := h.catalog.InitialState(workflowType, entityID, threadID, payload)
	require.NoError(t, err)

	def, err := h.catalog.Definition(workflowType)
	require.NoError(t, err)

	final, err := h.executor.Run(context.Background(), def, state)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, final.Status)

	return final
}

func TestAllGraphsBuild(t *testing.T) {
	h := newHarness(t)

	for _, workflowType := range []models.WorkflowType{
		models.WorkflowPeakHour,
		models.WorkflowOvercrowding,
		models.WorkflowQueue,
		models.WorkflowDemographics,
		models.WorkflowPopularity,
	} {
		def, err := h.catalog.Definition(workflowType)
		require.NoError(t, err, "workflow %s", workflowType)
		assert.NotNil(t, def)
	}

	_, err := h.catalog.Definition(models.WorkflowType("fire"))
	assert.Error(t, err)
}

func TestOvercrowdingCriticalAtEntrance(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowOvercrowding, "entrance", map[string]any{"person_count": 320})

	require.Len(t, final.Alerts, 1)
	alert := final.Alerts[0]
	assert.Equal(t, "overcrowding", alert.AlertType)
	assert.Equal(t, models.SeverityCritical, alert.Severity)
	assert.Equal(t, "entrance", alert.EntityID)
	assert.False(t, alert.Acknowledged)
	assert.Equal(t, 320, alert.Metadata["person_count"])
	assert.Equal(t, 150, alert.Metadata["threshold"])
	assert.InDelta(t, 2.13, alert.Metadata["ratio"], 0.001)

	stored, err := h.store.AlertsByEntity(context.Background(), "entrance", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "overcrowding", stored[0].AlertType)
}

func TestOvercrowdingNormalOccupancyEmitsNothing(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowOvercrowding, "food-court", map[string]any{"person_count": 120})

	assert.Empty(t, final.Alerts)
	assert.Equal(t, 120, final.Int("person_count"))
	assert.Equal(t, 200, final.Int("threshold"))
}

func TestOvercrowdingSeverityTiers(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  models.Severity
	}{
		{name: "just over capacity", count: 160, want: models.SeverityMedium},
		{name: "well over capacity", count: 240, want: models.SeverityHigh},
		{name: "double capacity", count: 320, want: models.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			final := h.run(t, models.WorkflowOvercrowding, "entrance", map[string]any{"person_count": tt.count})

			require.Len(t, final.Alerts, 1)
			assert.Equal(t, tt.want, final.Alerts[0].Severity)
		})
	}
}

func TestPeakHourDetected(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowPeakHour, "CAM_001", map[string]any{"visitor_count": 180})

	assert.True(t, final.Bool("is_peak"))
	require.Len(t, final.Alerts, 1)
	alert := final.Alerts[0]
	assert.Equal(t, "peak_hour", alert.AlertType)
	assert.Equal(t, models.SeverityHigh, alert.Severity)
	assert.Equal(t, "Peak hour! 180 visitors", alert.Metadata["message"])

	tally, err := h.counter.Get(context.Background(), counters.PeakHoursKey(h.now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), tally)
}

func TestLowHourDetected(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowPeakHour, "CAM_001", map[string]any{"visitor_count": 8})

	assert.True(t, final.Bool("is_low"))
	require.Len(t, final.Alerts, 1)
	assert.Equal(t, "low_hour", final.Alerts[0].AlertType)
	assert.Equal(t, models.SeverityLow, final.Alerts[0].Severity)
}

func TestNormalHourEmitsNoAlert(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowPeakHour, "CAM_001", map[string]any{"visitor_count": 50})

	assert.Empty(t, final.Alerts)
	assert.Equal(t, string(models.BandNormal), final.String("band"))

	tally, err := h.counter.Get(context.Background(), counters.PeakHoursKey(h.now))
	require.NoError(t, err)
	assert.Zero(t, tally)
}

func TestPeakHourCountsUniqueVisitorsFromDetections(t *testing.T) {
	h := newHarness(t)

	// Previous full hour is 14:00-15:00. Three tracked people, one of them
	// seen twice, plus six untracked detections (heuristic divisor 3 -> 2).
	base := time.Date(2026, 3, 14, 14, 10, 0, 0, time.UTC)
	h.source.Add("CAM_001",
		detection.Record{ClassName: "person", TrackID: 1, Timestamp: base},
		detection.Record{ClassName: "person", TrackID: 1, Timestamp: base.Add(time.Minute)},
		detection.Record{ClassName: "person", TrackID: 2, Timestamp: base.Add(2 * time.Minute)},
		detection.Record{ClassName: "person", TrackID: 3, Timestamp: base.Add(3 * time.Minute)},
	)

	for i := 0; i < 6; i++ {
		h.source.Add("CAM_001", detection.Record{ClassName: "person", Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	final := h.run(t, models.WorkflowPeakHour, "CAM_001", nil)

	assert.Equal(t, 5, final.Int("visitor_count"))
}

func TestForecastAveragesLastThreeHours(t *testing.T) {
	deps := &Deps{}
	node := &peakForecastNode{deps: deps}

	state := models.NewExecutionState(models.WorkflowPeakHour, "CAM_001", "t", map[string]any{
		"hourly_history": []any{float64(10), float64(20), float64(90), float64(120), float64(150)},
	})

	patch, routing, err := node.Execute(context.Background(), state)
	require.NoError(t, err)
	assert.False(t, routing.IsEnd())
	assert.Equal(t, (90+120+150)/3, patch.Variables["forecast_next"])
}

func TestQueueCritical(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowQueue, "checkout", map[string]any{
		"queue_people":          55,
		"throughput_per_minute": 6.0,
	})

	assert.Equal(t, queueStatusCritical, final.String("queue_status"))
	require.Len(t, final.Alerts, 1)
	alert := final.Alerts[0]
	assert.Equal(t, "queue_critical", alert.AlertType)
	assert.Equal(t, models.SeverityHigh, alert.Severity)
	assert.Equal(t, 55, alert.Metadata["people_in_queue"])
	assert.InDelta(t, 41.25, alert.Metadata["queue_length_m"], 0.001)
}

func TestQueueBanding(t *testing.T) {
	tests := []struct {
		name       string
		people     int
		throughput float64
		wantStatus string
		wantAlert  string
	}{
		{name: "critical", people: 55, throughput: 10, wantStatus: queueStatusCritical, wantAlert: "queue_critical"},
		{name: "buildup", people: 35, throughput: 10, wantStatus: queueStatusLong, wantAlert: "queue_buildup"},
		{name: "high wait", people: 29, throughput: 5, wantStatus: queueStatusLong, wantAlert: "wait_time_high"},
		{name: "slow moving", people: 4, throughput: 2, wantStatus: queueStatusMedium, wantAlert: "queue_moving_slow"},
		{name: "normal", people: 10, throughput: 8, wantStatus: queueStatusShort, wantAlert: ""},
		{name: "empty", people: 0, throughput: 0, wantStatus: queueStatusShort, wantAlert: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			final := h.run(t, models.WorkflowQueue, "checkout", map[string]any{
				"queue_people":          tt.people,
				"throughput_per_minute": tt.throughput,
			})

			assert.Equal(t, tt.wantStatus, final.String("queue_status"))

			if tt.wantAlert == "" {
				assert.Empty(t, final.Alerts)
			} else {
				require.Len(t, final.Alerts, 1)
				assert.Equal(t, tt.wantAlert, final.Alerts[0].AlertType)
			}
		})
	}
}

func TestQueueWaitEstimate(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowQueue, "checkout", map[string]any{
		"queue_people":          20,
		"throughput_per_minute": 5.0,
	})

	// 20 people at 5/min is a four minute wait.
	assert.InDelta(t, 240.0, final.Float("wait_seconds"), 0.001)
}

func TestDemographicsDistribution(t *testing.T) {
	h := newHarness(t)

	// Previous day is 2026-03-13.
	base := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		h.source.Add("CAM_001", detection.Record{ClassName: "person", TrackID: i + 1, Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	for i := 0; i < 2; i++ {
		h.source.Add("CAM_001", detection.Record{ClassName: "child", TrackID: 100 + i, Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	final := h.run(t, models.WorkflowDemographics, "CAM_001", nil)

	assert.Equal(t, 8, final.Int("total"))
	assert.Equal(t, "person", final.String("dominant_class"))

	distribution, ok := final.Variables["distribution"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 75.0, distribution["person"], 0.001)
	assert.InDelta(t, 25.0, distribution["child"], 0.001)
	assert.Empty(t, final.Alerts)
}

func TestPopularityHotspot(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowPopularity, "food-court", map[string]any{"visits": 120})

	assert.True(t, final.Bool("hotspot"))
	assert.InDelta(t, 1.2, final.Float("intensity"), 0.001)

	tally, err := h.counter.Get(context.Background(), counters.ZoneVisitsKey("food-court", h.now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), tally)
}

func TestPopularityQuietZone(t *testing.T) {
	h := newHarness(t)

	final := h.run(t, models.WorkflowPopularity, "main-hall", map[string]any{"visits": 40})

	assert.False(t, final.Bool("hotspot"))

	tally, err := h.counter.Get(context.Background(), counters.ZoneVisitsKey("main-hall", h.now))
	require.NoError(t, err)
	assert.Zero(t, tally)
}

func TestInitialStateRejectsBadPayload(t *testing.T) {
	h := newHarness(t)

	_, err := h.catalog.InitialState(models.WorkflowOvercrowding, "entrance", "t", map[string]any{"person_count": "many"})
	assert.Error(t, err)

	_, err = h.catalog.InitialState(models.WorkflowOvercrowding, "", "t", nil)
	assert.Error(t, err)

	_, err = h.catalog.InitialState(models.WorkflowQueue, "checkout", "t", map[string]any{"queue_people": -1})
	assert.Error(t, err)
}

func TestZoneThresholdFallback(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 150, cfg.ZoneThreshold("entrance"))
	assert.Equal(t, 50, cfg.ZoneThreshold("checkout"))

	// Unknown zones fall back to the most permissive capacity.
	assert.Equal(t, 300, cfg.ZoneThreshold("parking"))
}

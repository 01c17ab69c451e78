package file

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/persistence"
)

func newTestPersistence(t *testing.T) persistence.Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func checkpointFor(threadID string, seq int) *models.Checkpoint {
	state := models.NewExecutionState(models.WorkflowPeakHour, "CAM_001", threadID, map[string]any{
		"person_count": seq * 10,
	})
	state.SequenceNo = seq

	return &models.Checkpoint{
		ThreadID:   threadID,
		SequenceNo: seq,
		State:      state,
		WrittenAt:  time.Now().UTC(),
	}
}

func TestSaveAndLoadCheckpoints(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	for seq := 0; seq < 3; seq++ {
		require.NoError(t, store.SaveCheckpoint(ctx, checkpointFor("thread-a", seq)))
	}

	latest, err := store.LatestCheckpoint(ctx, "thread-a")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.SequenceNo)
	assert.Equal(t, 20, latest.State.Int("person_count"))

	history, err := store.CheckpointHistory(ctx, "thread-a")
	require.NoError(t, err)
	require.Len(t, history, 3)

	for i, cp := range history {
		assert.Equal(t, i, cp.SequenceNo)
	}
}

func TestSaveCheckpointRejectsGapsAndDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	require.NoError(t, store.SaveCheckpoint(ctx, checkpointFor("thread-b", 0)))

	err := store.SaveCheckpoint(ctx, checkpointFor("thread-b", 2))
	assert.ErrorIs(t, err, persistence.ErrSequenceGap)

	err = store.SaveCheckpoint(ctx, checkpointFor("thread-b", 0))
	assert.ErrorIs(t, err, persistence.ErrDuplicateSequence)

	// First checkpoint of a thread must be sequence 0.
	err = store.SaveCheckpoint(ctx, checkpointFor("thread-c", 1))
	assert.ErrorIs(t, err, persistence.ErrSequenceGap)
}

func TestLatestCheckpointNotFound(t *testing.T) {
	store := newTestPersistence(t)

	_, err := store.LatestCheckpoint(context.Background(), "missing-thread")
	assert.True(t, persistence.IsCheckpointNotFound(err))
}

func TestSaveCheckpointRejectsUnsafeThreadIDs(t *testing.T) {
	store := newTestPersistence(t)

	for _, threadID := range []string{"", "../escape", `bad\id`, "a/b"} {
		cp := checkpointFor("x", 0)
		cp.ThreadID = threadID
		assert.Error(t, store.SaveCheckpoint(context.Background(), cp), "thread id %q", threadID)
	}
}

func TestConcurrentThreadsDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)
	threads := []string{"t1", "t2", "t3", "t4"}

	var wg sync.WaitGroup

	for _, threadID := range threads {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for seq := 0; seq < 10; seq++ {
				assert.NoError(t, store.SaveCheckpoint(ctx, checkpointFor(threadID, seq)))
			}
		}()
	}

	wg.Wait()

	for _, threadID := range threads {
		history, err := store.CheckpointHistory(ctx, threadID)
		require.NoError(t, err)
		require.Len(t, history, 10)

		for i, cp := range history {
			assert.Equal(t, i, cp.SequenceNo)
		}
	}
}

func TestAlertRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.InsertAlert(ctx, &models.Alert{
			AlertType: "overcrowding",
			Severity:  models.SeverityHigh,
			EntityID:  "entrance",
			Timestamp: time.Now().UTC(),
			Metadata:  map[string]any{"person_count": i},
		}))
	}

	alerts, err := store.AlertsByEntity(ctx, "entrance", 3)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, float64(4), alerts[2].Metadata["person_count"])
	assert.False(t, alerts[0].Acknowledged)

	none, err := store.AlertsByEntity(ctx, "food-court", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAnalyticsInsert(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewPersistence(root)

	require.NoError(t, store.InsertAnalytics(ctx, &models.AnalyticsRow{
		Kind:      "peak_hour",
		EntityID:  "CAM_001",
		Timestamp: time.Now().UTC(),
		Fields:    map[string]any{"person_count": 180, "is_peak": true},
	}))

	repo := NewAnalyticsRepository(root)
	rows, err := repo.Rows("peak_hour")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CAM_001", rows[0].EntityID)
	assert.Equal(t, true, rows[0].Fields["is_peak"])
}

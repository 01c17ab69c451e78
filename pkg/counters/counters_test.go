package counters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounterIncrementAndGet(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryCounter()

	count, err := counter.Get(ctx, "stats:peak_hours:2025-09-01")
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = counter.Increment(ctx, "stats:peak_hours:2025-09-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = counter.Increment(ctx, "stats:peak_hours:2025-09-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryCounterConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryCounter()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := counter.Increment(ctx, "shared")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	count, err := counter.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}

func TestCounterKeys(t *testing.T) {
	date := time.Date(2025, 9, 1, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, "stats:peak_hours:2025-09-01", PeakHoursKey(date))
	assert.Equal(t, "stats:zone_visits:entrance:2025-09-01", ZoneVisitsKey("entrance", date))
}

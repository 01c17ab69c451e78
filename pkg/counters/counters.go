// Package counters provides the fast counter cache used for cheap
// cross-instance tallies (daily peak hours, zone visits). Eventual
// consistency is acceptable; increments must be atomic.
package counters

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Counter is the cache contract: atomic increment and read.
type Counter interface {
	Increment(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
}

// PeakHoursKey is the daily tally of detected peak hours.
func PeakHoursKey(date time.Time) string {
	return fmt.Sprintf("stats:peak_hours:%s", date.Format("2006-01-02"))
}

// ZoneVisitsKey is the daily visit tally per zone.
func ZoneVisitsKey(zone string, date time.Time) string {
	return fmt.Sprintf("stats:zone_visits:%s:%s", zone, date.Format("2006-01-02"))
}

// MemoryCounter is an in-process Counter for tests and single-node setups.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int64)}
}

func (m *MemoryCounter) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts[key]++

	return m.counts[key], nil
}

func (m *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counts[key], nil
}

package detection

import (
	"context"
	"sort"
	"sync"
)

// MemorySource is an in-memory Source used in tests and local development.
type MemorySource struct {
	mu      sync.RWMutex
	records map[string][]Record
}

func NewMemorySource() *MemorySource {
	return &MemorySource{records: make(map[string][]Record)}
}

// Add appends detections for an entity.
func (m *MemorySource) Add(entityID string, records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[entityID] = append(m.records[entityID], records...)
}

// Query returns the entity's detections inside the window, ordered by
// timestamp.
func (m *MemorySource) Query(_ context.Context, entityID string, window Window) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Record

	for _, r := range m.records[entityID] {
		if r.Timestamp.Before(window.From) || !r.Timestamp.Before(window.To) {
			continue
		}

		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

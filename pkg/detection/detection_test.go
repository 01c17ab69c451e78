package detection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniquePeople(t *testing.T) {
	tests := []struct {
		name     string
		records  []Record
		divisor  int
		expected int
	}{
		{
			name:     "empty",
			records:  nil,
			divisor:  3,
			expected: 0,
		},
		{
			name: "distinct tracks",
			records: []Record{
				{ClassName: "person", TrackID: 1},
				{ClassName: "person", TrackID: 2},
				{ClassName: "person", TrackID: 2},
				{ClassName: "person", TrackID: 3},
			},
			divisor:  3,
			expected: 3,
		},
		{
			name: "untracked fall back to divisor heuristic",
			records: []Record{
				{ClassName: "person"}, {ClassName: "person"}, {ClassName: "person"},
				{ClassName: "person"}, {ClassName: "person"}, {ClassName: "person"},
			},
			divisor:  3,
			expected: 2,
		},
		{
			name: "non-person classes ignored",
			records: []Record{
				{ClassName: "person", TrackID: 7},
				{ClassName: "bag", TrackID: 8},
				{ClassName: "cart", TrackID: 9},
			},
			divisor:  3,
			expected: 1,
		},
		{
			name:     "divisor floor of one",
			records:  []Record{{ClassName: "person"}, {ClassName: "person"}},
			divisor:  0,
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UniquePeople(tt.records, tt.divisor))
		})
	}
}

func TestMemorySourceQueryWindow(t *testing.T) {
	source := NewMemorySource()
	base := time.Date(2025, 9, 1, 14, 0, 0, 0, time.UTC)

	source.Add("CAM_001",
		Record{ClassName: "person", TrackID: 1, Timestamp: base.Add(-time.Minute)},
		Record{ClassName: "person", TrackID: 2, Timestamp: base.Add(30 * time.Minute)},
		Record{ClassName: "person", TrackID: 3, Timestamp: base.Add(10 * time.Minute)},
		Record{ClassName: "person", TrackID: 4, Timestamp: base.Add(time.Hour)},
	)
	source.Add("CAM_002", Record{ClassName: "person", TrackID: 9, Timestamp: base})

	records, err := source.Query(context.Background(), "CAM_001", Window{From: base, To: base.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ordered by timestamp, window is half-open.
	assert.Equal(t, 3, records[0].TrackID)
	assert.Equal(t, 2, records[1].TrackID)
}

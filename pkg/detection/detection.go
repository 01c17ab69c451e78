// Package detection defines the read-only interface to the object-detection
// pipeline. Queries are idempotent and safe for concurrent callers, which is
// what allows a resumed workflow run to re-fetch its inputs.
package detection

import (
	"context"
	"time"
)

// Record is one object detection produced by the vision pipeline.
type Record struct {
	ClassName  string     `json:"class_name"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
	TrackID    int        `json:"track_id"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Window is a half-open time interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Source queries detections for one entity within a time window, ordered by
// timestamp.
type Source interface {
	Query(ctx context.Context, entityID string, window Window) ([]Record, error)
}

// UniquePeople estimates distinct visitors among person detections. Tracked
// detections are counted by distinct track id; untracked ones fall back to
// dividing the raw detection count by divisor, a camera-placement heuristic
// that stays configurable rather than baked in.
func UniquePeople(records []Record, divisor int) int {
	tracks := make(map[int]struct{})
	untracked := 0

	for _, r := range records {
		if r.ClassName != "person" {
			continue
		}

		if r.TrackID > 0 {
			tracks[r.TrackID] = struct{}{}
		} else {
			untracked++
		}
	}

	if divisor < 1 {
		divisor = 1
	}

	return len(tracks) + untracked/divisor
}

// CountByClass tallies detections per class name.
func CountByClass(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.ClassName]++
	}

	return counts
}

package catalog

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vallabhn1/MallCCTV/pkg/detection"
	"github.com/vallabhn1/MallCCTV/pkg/engine"
)

// Detection query windows per workflow. The detection source is idempotent,
// so a resumed run re-fetching a window sees the same records.
const (
	overcrowdingWindow = 10 * time.Minute
	queueWindow        = 60 * time.Second
	throughputWindow   = 10 * time.Minute
)

// queryDetections fetches a window from the detection source, classifying
// failures as transient so the executor retries them.
func queryDetections(ctx context.Context, source detection.Source, entityID string, window detection.Window) ([]detection.Record, error) {
	records, err := source.Query(ctx, entityID, window)
	if err != nil {
		return nil, engine.Transient(fmt.Errorf("query detections for %s: %w", entityID, err))
	}

	return records, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// intSlice reads a slice variable that may have round-tripped through JSON,
// where ints come back as float64.
func intSlice(v any) []int {
	switch s := v.(type) {
	case []int:
		return s
	case []any:
		out := make([]int, 0, len(s))

		for _, item := range s {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			}
		}

		return out
	default:
		return nil
	}
}

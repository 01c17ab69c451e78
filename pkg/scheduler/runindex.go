package scheduler

import (
	"strconv"
	"time"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// Run index formats. Interval workflows stamp the period so that re-triggers
// within the same period resolve to the same thread and resume instead of
// forking a second run.
const (
	hourlyIndexLayout = "2006-01-02T15"
	dailyIndexLayout  = "2006-01-02"
)

// RunIndexFor derives the run index for a trigger firing at t. Hourly
// workflows share one thread per hour, daily workflows one per day. Queue
// sampling buckets by the sample interval, and realtime detection events
// bucket by the coalescing window so that bursts collapse onto one thread.
func RunIndexFor(workflowType models.WorkflowType, t time.Time, sampleInterval, coalesceWindow time.Duration) string {
	t = t.UTC()

	switch workflowType {
	case models.WorkflowPeakHour, models.WorkflowPopularity:
		return t.Format(hourlyIndexLayout)
	case models.WorkflowDemographics:
		return t.Format(dailyIndexLayout)
	case models.WorkflowQueue:
		return bucketIndex(t, sampleInterval)
	case models.WorkflowOvercrowding:
		return bucketIndex(t, coalesceWindow)
	default:
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
}

func bucketIndex(t time.Time, window time.Duration) string {
	if window <= 0 {
		return strconv.FormatInt(t.UnixMilli(), 10)
	}

	return strconv.FormatInt(t.Truncate(window).UnixMilli(), 10)
}

// Package persistence provides the durable storage abstraction for
// checkpoints, alerts, and aggregated analytics.
package persistence

import (
	"context"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// CheckpointStore is the append-only log of state snapshots per thread.
// Save must be durable before returning and atomic with respect to
// concurrent readers: a reader never observes sequence n without n-1.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error
	LatestCheckpoint(ctx context.Context, threadID string) (*models.Checkpoint, error)
	CheckpointHistory(ctx context.Context, threadID string) ([]*models.Checkpoint, error)
}

// AlertStore records decided alerts. Inserts happen before the owning node's
// checkpoint is written, so a committed checkpoint implies committed alerts.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert *models.Alert) error
	AlertsByEntity(ctx context.Context, entityID string, limit int) ([]*models.Alert, error)
}

// AnalyticsStore records aggregated reporting rows.
type AnalyticsStore interface {
	InsertAnalytics(ctx context.Context, row *models.AnalyticsRow) error
}

// Persistence bundles the stores a running agent needs.
type Persistence interface {
	CheckpointStore
	AlertStore
	AnalyticsStore

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// AnalyticsRepository handles aggregated reporting rows.
type AnalyticsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *sql.DB, logger *slog.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, logger: logger}
}

// InsertAnalytics writes one reporting row.
func (ar *AnalyticsRepository) InsertAnalytics(ctx context.Context, row *models.AnalyticsRow) error {
	fieldsJSON, err := json.Marshal(row.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics fields: %w", err)
	}

	_, err = ar.db.ExecContext(ctx, `
		INSERT INTO analytics (kind, entity_id, timestamp, fields)
		VALUES ($1, $2, $3, $4)
	`, row.Kind, row.EntityID, row.Timestamp, fieldsJSON)
	if err != nil {
		return fmt.Errorf("failed to insert analytics row: %w", err)
	}

	return nil
}

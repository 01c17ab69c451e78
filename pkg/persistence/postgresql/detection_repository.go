package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vallabhn1/MallCCTV/pkg/detection"
)

// DetectionRepository reads detection events written by the vision pipeline.
// It implements detection.Source; queries are read-only and idempotent.
type DetectionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDetectionRepository creates a new detection repository.
func NewDetectionRepository(db *sql.DB, logger *slog.Logger) *DetectionRepository {
	return &DetectionRepository{db: db, logger: logger}
}

// Detections returns a detection.Source backed by this database.
func (p *Persistence) Detections() detection.Source {
	return NewDetectionRepository(p.db, p.logger)
}

// Query returns the entity's detections within [window.From, window.To),
// ordered by timestamp.
func (dr *DetectionRepository) Query(ctx context.Context, entityID string, window detection.Window) ([]detection.Record, error) {
	rows, err := dr.db.QueryContext(ctx, `
		SELECT class_name, confidence, bbox, COALESCE(track_id, 0), timestamp
		FROM detections
		WHERE camera_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC
	`, entityID, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}

	defer rows.Close()

	var records []detection.Record

	for rows.Next() {
		var (
			record   detection.Record
			bboxJSON []byte
		)

		err := rows.Scan(&record.ClassName, &record.Confidence, &bboxJSON, &record.TrackID, &record.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}

		if err := json.Unmarshal(bboxJSON, &record.BBox); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bbox: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detections: %w", err)
	}

	return records, nil
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// AlertRepository handles alert-related database operations.
type AlertRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAlertRepository creates a new alert repository.
func NewAlertRepository(db *sql.DB, logger *slog.Logger) *AlertRepository {
	return &AlertRepository{db: db, logger: logger}
}

// InsertAlert writes an alert row. Acknowledged is stored as an integer with
// default 0 to match the reporting schema.
func (ar *AlertRepository) InsertAlert(ctx context.Context, alert *models.Alert) error {
	metadataJSON, err := json.Marshal(alert.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal alert metadata: %w", err)
	}

	acknowledged := 0
	if alert.Acknowledged {
		acknowledged = 1
	}

	_, err = ar.db.ExecContext(ctx, `
		INSERT INTO alerts (alert_type, severity, entity_id, timestamp, metadata, acknowledged)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, alert.AlertType, alert.Severity, alert.EntityID, alert.Timestamp, metadataJSON, acknowledged)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// AlertsByEntity returns up to limit most recent alerts for the entity,
// oldest first.
func (ar *AlertRepository) AlertsByEntity(ctx context.Context, entityID string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := ar.db.QueryContext(ctx, `
		SELECT alert_type, severity, entity_id, timestamp, metadata, acknowledged
		FROM (
			SELECT id, alert_type, severity, entity_id, timestamp, metadata, acknowledged
			FROM alerts
			WHERE entity_id = $1
			ORDER BY timestamp DESC
			LIMIT $2
		) recent
		ORDER BY timestamp ASC
	`, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}

	defer rows.Close()

	var alerts []*models.Alert

	for rows.Next() {
		var (
			alert        models.Alert
			metadataJSON []byte
			acknowledged int
		)

		err := rows.Scan(&alert.AlertType, &alert.Severity, &alert.EntityID,
			&alert.Timestamp, &metadataJSON, &acknowledged)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &alert.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alert metadata: %w", err)
			}
		}

		alert.Acknowledged = acknowledged != 0
		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// AlertRepository stores one JSON log of alerts per entity.
type AlertRepository struct {
	root string
	mu   sync.Mutex
}

func NewAlertRepository(root string) *AlertRepository {
	return &AlertRepository{root: root}
}

func (ar *AlertRepository) path(entityID string) string {
	return filepath.Join(ar.root, "alerts", entityID+".json")
}

func (ar *AlertRepository) read(entityID string) ([]*models.Alert, error) {
	data, err := os.ReadFile(ar.path(entityID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read alert log: %w", err)
	}

	var alerts []*models.Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("failed to parse alert log: %w", err)
	}

	return alerts, nil
}

// InsertAlert appends an alert to the entity's log.
func (ar *AlertRepository) InsertAlert(_ context.Context, alert *models.Alert) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	alerts, err := ar.read(alert.EntityID)
	if err != nil {
		return err
	}

	alerts = append(alerts, alert)

	dir := filepath.Join(ar.root, "alerts")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create alerts directory: %w", err)
	}

	data, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	if err := os.WriteFile(ar.path(alert.EntityID), data, 0600); err != nil {
		return fmt.Errorf("failed to write alert log: %w", err)
	}

	return nil
}

// AlertsByEntity returns up to limit most recent alerts for the entity.
func (ar *AlertRepository) AlertsByEntity(_ context.Context, entityID string, limit int) ([]*models.Alert, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	alerts, err := ar.read(entityID)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(alerts) > limit {
		alerts = alerts[len(alerts)-limit:]
	}

	return alerts, nil
}

func (fp *Persistence) InsertAlert(ctx context.Context, alert *models.Alert) error {
	return fp.alertRepo.InsertAlert(ctx, alert)
}

func (fp *Persistence) AlertsByEntity(ctx context.Context, entityID string, limit int) ([]*models.Alert, error) {
	return fp.alertRepo.AlertsByEntity(ctx, entityID, limit)
}

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

// AnalyticsRepository stores one JSON log of reporting rows per kind.
type AnalyticsRepository struct {
	root string
	mu   sync.Mutex
}

func NewAnalyticsRepository(root string) *AnalyticsRepository {
	return &AnalyticsRepository{root: root}
}

func (ar *AnalyticsRepository) path(kind string) string {
	return filepath.Join(ar.root, "analytics", kind+".json")
}

// InsertAnalytics appends a row to the kind's log.
func (ar *AnalyticsRepository) InsertAnalytics(_ context.Context, row *models.AnalyticsRow) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	var rows []*models.AnalyticsRow

	data, err := os.ReadFile(ar.path(row.Kind))
	if err == nil {
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("failed to parse analytics log: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read analytics log: %w", err)
	}

	rows = append(rows, row)

	dir := filepath.Join(ar.root, "analytics")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create analytics directory: %w", err)
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analytics rows: %w", err)
	}

	if err := os.WriteFile(ar.path(row.Kind), out, 0600); err != nil {
		return fmt.Errorf("failed to write analytics log: %w", err)
	}

	return nil
}

// Rows returns all stored rows of one kind, oldest first.
func (ar *AnalyticsRepository) Rows(kind string) ([]*models.AnalyticsRow, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	data, err := os.ReadFile(ar.path(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read analytics log: %w", err)
	}

	var rows []*models.AnalyticsRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse analytics log: %w", err)
	}

	return rows, nil
}

func (fp *Persistence) InsertAnalytics(ctx context.Context, row *models.AnalyticsRow) error {
	return fp.analyticsRepo.InsertAnalytics(ctx, row)
}

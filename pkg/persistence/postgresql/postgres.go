// Package postgresql provides PostgreSQL persistence for checkpoints, alerts,
// analytics, and detection queries.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver with database/sql.
	_ "github.com/lib/pq"

	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	checkpointRepo *CheckpointRepository
	alertRepo      *AlertRepository
	analyticsRepo  *AnalyticsRepository
}

// NewPersistence connects to PostgreSQL and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		checkpointRepo: NewCheckpointRepository(database, logger),
		alertRepo:      NewAlertRepository(database, logger),
		analyticsRepo:  NewAnalyticsRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) SaveCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error {
	return p.checkpointRepo.SaveCheckpoint(ctx, checkpoint)
}

func (p *Persistence) LatestCheckpoint(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	return p.checkpointRepo.LatestCheckpoint(ctx, threadID)
}

func (p *Persistence) CheckpointHistory(ctx context.Context, threadID string) ([]*models.Checkpoint, error) {
	return p.checkpointRepo.CheckpointHistory(ctx, threadID)
}

func (p *Persistence) InsertAlert(ctx context.Context, alert *models.Alert) error {
	return p.alertRepo.InsertAlert(ctx, alert)
}

func (p *Persistence) AlertsByEntity(ctx context.Context, entityID string, limit int) ([]*models.Alert, error) {
	return p.alertRepo.AlertsByEntity(ctx, entityID, limit)
}

func (p *Persistence) InsertAnalytics(ctx context.Context, row *models.AnalyticsRow) error {
	return p.analyticsRepo.InsertAnalytics(ctx, row)
}

// Package postgresql provides PostgreSQL persistence for pipeline runs.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db      *sql.DB
	logger  *slog.Logger
	runRepo *RunRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:      database,
		logger:  logger,
		runRepo: NewRunRepository(database, logger),
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

func (p *Persistence) SaveRun(ctx context.Context, run models.PipelineRun) error {
	return p.runRepo.Save(ctx, run)
}

func (p *Persistence) RunByID(ctx context.Context, id string) (*models.PipelineRun, error) {
	return p.runRepo.GetByID(ctx, id)
}

func (p *Persistence) Runs(ctx context.Context) ([]models.PipelineRun, error) {
	return p.runRepo.GetAll(ctx)
}

func (p *Persistence) SaveLogs(ctx context.Context, runID string, entries []models.LogEntry) error {
	return p.runRepo.SaveLogs(ctx, runID, entries)
}

func (p *Persistence) LogsByRunID(ctx context.Context, runID string) ([]models.LogEntry, error) {
	return p.runRepo.GetLogs(ctx, runID)
}

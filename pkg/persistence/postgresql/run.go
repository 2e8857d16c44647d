package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/persistence"
)

// RunRepository handles run-related database operations. The full snapshot is
// kept as JSONB; status, stage and timestamps are duplicated into columns for
// querying.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

func (r *RunRepository) Save(ctx context.Context, run models.PipelineRun) error {
	if err := persistence.ValidateRunID(run.ID); err != nil {
		return err
	}

	snapshot, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	query := `
		INSERT INTO pipeline_runs (id, status, stage, video_name, framework, snapshot, started_at, finished_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status
		  , stage = EXCLUDED.stage
		  , snapshot = EXCLUDED.snapshot
		  , finished_at = EXCLUDED.finished_at
		  , updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		string(run.Status),
		int(run.Stage),
		run.VideoName,
		string(run.Framework),
		snapshot,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.PipelineRun, error) {
	row := r.db.QueryRowContext(ctx, `SELECT snapshot FROM pipeline_runs WHERE id = $1`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("GetByID", id, err)
	}

	return run, nil
}

func (r *RunRepository) GetAll(ctx context.Context) ([]models.PipelineRun, error) {
	query := `
		SELECT snapshot
		FROM pipeline_runs
		ORDER BY started_at DESC NULLS LAST, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]models.PipelineRun, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) SaveLogs(ctx context.Context, runID string, entries []models.LogEntry) error {
	if err := persistence.ValidateRunID(runID); err != nil {
		return err
	}

	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = transaction.ExecContext(ctx, `DELETE FROM pipeline_logs WHERE run_id = $1`, runID)
	if err != nil {
		_ = transaction.Rollback()

		return persistence.NewRunError("SaveLogs", runID, err)
	}

	for _, entry := range entries {
		_, err = transaction.ExecContext(ctx,
			`INSERT INTO pipeline_logs (run_id, seq, logged_at, message) VALUES ($1, $2, $3, $4)`,
			runID, entry.Seq, entry.Timestamp, entry.Message)
		if err != nil {
			_ = transaction.Rollback()

			return persistence.NewRunError("SaveLogs", runID, err)
		}
	}

	return transaction.Commit()
}

func (r *RunRepository) GetLogs(ctx context.Context, runID string) ([]models.LogEntry, error) {
	var exists bool

	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pipeline_runs WHERE id = $1)`, runID).Scan(&exists)
	if err != nil {
		return nil, persistence.NewRunError("GetLogs", runID, err)
	}

	if !exists {
		return nil, persistence.NewRunError("GetLogs", runID, persistence.ErrRunNotFound)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, logged_at, message FROM pipeline_logs WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	entries := make([]models.LogEntry, 0)

	for rows.Next() {
		var entry models.LogEntry
		if err := rows.Scan(&entry.Seq, &entry.Timestamp, &entry.Message); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}

		entry.Timestamp = entry.Timestamp.UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.PipelineRun, error) {
	var snapshot []byte
	if err := row.Scan(&snapshot); err != nil {
		return nil, err
	}

	var run models.PipelineRun
	if err := json.Unmarshal(snapshot, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run snapshot: %w", err)
	}

	return &run, nil
}

// Package redis provides Redis persistence for pipeline runs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "o2a:"

// Persistence keeps each run snapshot and log stream as a JSON string and
// indexes run IDs in a sorted set scored by start time.
type Persistence struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewPersistence connects to the server described by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Persistence{client: client, logger: logger}, nil
}

func runKey(id string) string  { return keyPrefix + "run:" + id }
func logsKey(id string) string { return keyPrefix + "logs:" + id }

const runIndexKey = keyPrefix + "runs"

func (p *Persistence) SaveRun(ctx context.Context, run models.PipelineRun) error {
	if err := persistence.ValidateRunID(run.ID); err != nil {
		return err
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	score := 0.0
	if run.StartedAt != nil {
		score = float64(run.StartedAt.UnixMilli())
	}

	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, runKey(run.ID), data, 0)
		pipe.ZAdd(ctx, runIndexKey, goredis.Z{Score: score, Member: run.ID})

		return nil
	})
	if err != nil {
		return persistence.NewRunError("SaveRun", run.ID, err)
	}

	return nil
}

func (p *Persistence) RunByID(ctx context.Context, id string) (*models.PipelineRun, error) {
	if err := persistence.ValidateRunID(id); err != nil {
		return nil, err
	}

	data, err := p.client.Get(ctx, runKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("RunByID", id, err)
	}

	var run models.PipelineRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

func (p *Persistence) Runs(ctx context.Context) ([]models.PipelineRun, error) {
	ids, err := p.client.ZRevRange(ctx, runIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]models.PipelineRun, 0, len(ids))

	for _, id := range ids {
		run, err := p.RunByID(ctx, id)
		if persistence.IsRunNotFound(err) {
			p.logger.WarnContext(ctx, "run indexed but missing", "run_id", id)

			continue
		}

		if err != nil {
			return nil, err
		}

		runs = append(runs, *run)
	}

	persistence.SortRuns(runs)

	return runs, nil
}

func (p *Persistence) SaveLogs(ctx context.Context, runID string, entries []models.LogEntry) error {
	if err := persistence.ValidateRunID(runID); err != nil {
		return err
	}

	if entries == nil {
		entries = []models.LogEntry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal logs of run %s: %w", runID, err)
	}

	if err := p.client.Set(ctx, logsKey(runID), data, 0).Err(); err != nil {
		return persistence.NewRunError("SaveLogs", runID, err)
	}

	return nil
}

func (p *Persistence) LogsByRunID(ctx context.Context, runID string) ([]models.LogEntry, error) {
	if err := persistence.ValidateRunID(runID); err != nil {
		return nil, err
	}

	data, err := p.client.Get(ctx, logsKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewRunError("LogsByRunID", runID, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("LogsByRunID", runID, err)
	}

	entries := []models.LogEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal logs of run %s: %w", runID, err)
	}

	return entries, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

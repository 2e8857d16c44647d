// Package persistence stores pipeline run snapshots and their log streams.
package persistence

import (
	"context"

	"github.com/observe2agent/observe2agent/pkg/models"
)

type Persistence interface {
	// SaveRun inserts or replaces the snapshot with the run's ID.
	SaveRun(ctx context.Context, run models.PipelineRun) error
	RunByID(ctx context.Context, id string) (*models.PipelineRun, error)
	// Runs returns every stored run, most recently started first.
	Runs(ctx context.Context) ([]models.PipelineRun, error)

	// SaveLogs replaces the stored log stream of a run.
	SaveLogs(ctx context.Context, runID string, entries []models.LogEntry) error
	LogsByRunID(ctx context.Context, runID string) ([]models.LogEntry, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/persistence"
	"github.com/observe2agent/observe2agent/pkg/pipeline"
)

// StartRunRequest is the input of a pipeline run.
type StartRunRequest struct {
	VideoName string           `json:"video_name" validate:"required,max=255"`
	Framework models.Framework `json:"framework"  validate:"required,oneof=agent-framework legacy-webdriver modern-async-driver"`
}

// Pipeline serializes runs on one engine and records every snapshot.
type Pipeline struct {
	engine      *pipeline.Engine
	persistence persistence.Persistence
	logger      *slog.Logger

	// Runs started through Start outlive the request that started them.
	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewPipeline(ctx context.Context, engine *pipeline.Engine, p persistence.Persistence, logger *slog.Logger) *Pipeline {
	svc := &Pipeline{
		engine:      engine,
		persistence: p,
		logger:      logger.With("module", "pipeline_service"),
		baseCtx:     ctx,
	}

	engine.Subscribe(svc.record)

	return svc
}

// record persists the snapshot after each transition, and the log stream
// once the run is terminal.
func (p *Pipeline) record(ctx context.Context, update pipeline.Update) {
	switch update.Kind {
	case pipeline.UpdateRunStarted, pipeline.UpdateStageCompleted, pipeline.UpdateRunCompleted, pipeline.UpdateRunFailed:
	default:
		return
	}

	ctx = context.WithoutCancel(ctx)

	if err := p.persistence.SaveRun(ctx, update.Run); err != nil {
		p.logger.ErrorContext(ctx, "failed to save run snapshot", "run_id", update.Run.ID, "error", err)
	}

	if !update.Run.Status.Terminal() {
		return
	}

	if err := p.persistence.SaveLogs(ctx, update.Run.ID, p.engine.Logs()); err != nil {
		p.logger.ErrorContext(ctx, "failed to save run logs", "run_id", update.Run.ID, "error", err)
	}
}

// Start begins a run in the background and returns its initial snapshot.
func (p *Pipeline) Start(_ context.Context, req StartRunRequest) (models.PipelineRun, error) {
	run, done, err := p.engine.Start(p.baseCtx, req.VideoName, req.Framework)
	if err != nil {
		return models.PipelineRun{}, p.mapStartError("Start", err)
	}

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		final := <-done
		p.logger.InfoContext(p.baseCtx, "pipeline run finished", "run_id", final.ID, "status", final.Status)
	}()

	return run, nil
}

// RunSync runs the pipeline to completion and returns the final snapshot.
func (p *Pipeline) RunSync(ctx context.Context, req StartRunRequest) (models.PipelineRun, error) {
	run, err := p.engine.Run(ctx, req.VideoName, req.Framework)
	if err != nil {
		return models.PipelineRun{}, p.mapStartError("RunSync", err)
	}

	return run, nil
}

func (p *Pipeline) mapStartError(op string, err error) error {
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		return &ServiceError{Op: op, Code: "run_in_progress", Message: err.Error(), Err: ErrRunInProgress}
	case errors.Is(err, pipeline.ErrEmptyVideoName):
		return NewValidationError(op, "video_name_required", err.Error(), ErrInvalidRequest)
	case errors.Is(err, pipeline.ErrUnsupportedFramework):
		return NewValidationError(op, "unsupported_framework", err.Error(), ErrUnsupportedFramework)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Current returns the snapshot of the engine's run slot.
func (p *Pipeline) Current() models.PipelineRun {
	return p.engine.Snapshot()
}

// CurrentLogs returns the current run's ID and its log entries after sequence
// number since.
func (p *Pipeline) CurrentLogs(since int) (string, []models.LogEntry) {
	return p.engine.CurrentLogs(since)
}

// GetRun prefers the live snapshot for the current run.
func (p *Pipeline) GetRun(ctx context.Context, id string) (*models.PipelineRun, error) {
	if current := p.engine.Snapshot(); current.ID != "" && current.ID == id {
		return &current, nil
	}

	run, err := p.persistence.RunByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	return run, nil
}

// RunLogs returns the full log stream of a run.
func (p *Pipeline) RunLogs(ctx context.Context, id string) ([]models.LogEntry, error) {
	if currentID, entries := p.engine.CurrentLogs(0); currentID != "" && currentID == id {
		return entries, nil
	}

	entries, err := p.persistence.LogsByRunID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs of run %s: %w", id, err)
	}

	return entries, nil
}

func (p *Pipeline) ListRuns(ctx context.Context) ([]models.PipelineRun, error) {
	runs, err := p.persistence.Runs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// Wait blocks until every run started through Start has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// HealthCheck checks the health of the persistence layer.
func (p *Pipeline) HealthCheck(ctx context.Context) (string, bool) {
	if p.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := p.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

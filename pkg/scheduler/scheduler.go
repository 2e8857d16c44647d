// Package scheduler starts demo pipeline runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/services"
	"github.com/robfig/cron/v3"
)

// Starter begins a pipeline run without waiting for it.
type Starter interface {
	Start(ctx context.Context, req services.StartRunRequest) (models.PipelineRun, error)
}

type DemoSchedule struct {
	CronExpr  string
	VideoName string
	Framework models.Framework
}

func (s DemoSchedule) Validate() error {
	if s.CronExpr == "" {
		return errors.New("demo schedule cron expression is required")
	}

	if _, err := cron.ParseStandard(s.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	if s.VideoName == "" {
		return errors.New("demo schedule video name is required")
	}

	if !s.Framework.Valid() {
		return fmt.Errorf("demo schedule framework %q is not supported", s.Framework)
	}

	return nil
}

type Scheduler struct {
	schedule DemoSchedule
	starter  Starter
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
	ctx  context.Context
}

func New(schedule DemoSchedule, starter Starter, logger *slog.Logger) (*Scheduler, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	return &Scheduler{
		schedule: schedule,
		starter:  starter,
		logger: logger.With(
			"module", "demo_scheduler",
			"cron", schedule.CronExpr,
			"video_name", schedule.VideoName,
		),
	}, nil
}

// Start registers the cron job. Runs it starts outlive ctx only as long as
// the pipeline service lets them.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("demo scheduler already started")
	}

	s.ctx = ctx
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := s.cron.AddFunc(s.schedule.CronExpr, s.trigger)
	if err != nil {
		s.cron = nil

		return fmt.Errorf("failed to add demo cron job: %w", err)
	}

	s.logger.Info("Starting demo scheduler", "entry_id", id)
	s.cron.Start()

	return nil
}

func (s *Scheduler) trigger() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	run, err := s.starter.Start(ctx, services.StartRunRequest{
		VideoName: s.schedule.VideoName,
		Framework: s.schedule.Framework,
	})

	switch {
	case services.IsConflictError(err):
		s.logger.InfoContext(ctx, "Skipping demo run, a run is already in progress")
	case err != nil:
		s.logger.ErrorContext(ctx, "Failed to start demo run", "error", err)
	default:
		s.logger.InfoContext(ctx, "Demo run started", "run_id", run.ID)
	}
}

// Stop stops the cron and waits for a running job to return.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	s.logger.Info("Stopping demo scheduler")
	<-c.Stop().Done()

	return nil
}

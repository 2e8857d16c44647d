package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/observe2agent/observe2agent/pkg/eventbus"
	"github.com/observe2agent/observe2agent/pkg/events"
)

// watchRunOutcomes subscribes to terminal run events and logs them, so a
// broken transport shows up in the API's own logs.
func watchRunOutcomes(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	logger = logger.With("module", "run_outcomes")

	if err := bus.Handle(events.RunCompletedEvent, func(ctx context.Context, event any) error {
		completed, ok := event.(*events.RunCompleted)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}

		logger.InfoContext(ctx, "Run completed",
			"run_id", completed.RunID,
			"overall_status", completed.OverallStatus,
			"success_rate", completed.SuccessRate,
			"duration_ms", completed.DurationMs)

		return nil
	}); err != nil {
		return err
	}

	if err := bus.Handle(events.RunFailedEvent, func(ctx context.Context, event any) error {
		failed, ok := event.(*events.RunFailed)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}

		logger.WarnContext(ctx, "Run failed",
			"run_id", failed.RunID,
			"stage", failed.StageName,
			"error", failed.Error)

		return nil
	}); err != nil {
		return err
	}

	return bus.Subscribe(ctx)
}

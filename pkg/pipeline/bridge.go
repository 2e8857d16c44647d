package pipeline

import (
	"context"
	"log/slog"

	"github.com/observe2agent/observe2agent/pkg/eventbus"
	"github.com/observe2agent/observe2agent/pkg/events"
	"github.com/observe2agent/observe2agent/pkg/models"
)

// EventBridge republishes engine updates on an event bus, keyed by run ID.
type EventBridge struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewEventBridge(publisher eventbus.EventPublisher, logger *slog.Logger) *EventBridge {
	return &EventBridge{
		publisher: publisher,
		logger:    logger.With("module", "event_bridge"),
	}
}

// Listen is a Listener. Publish failures are logged and never affect the run.
func (b *EventBridge) Listen(ctx context.Context, update Update) {
	event := toEvent(update)
	if event == nil {
		return
	}

	if err := b.publisher.Publish(ctx, update.Run.ID, event); err != nil {
		b.logger.ErrorContext(ctx, "failed to publish pipeline event",
			"run_id", update.Run.ID,
			"event_type", event.GetType(),
			"error", err)
	}
}

func toEvent(update Update) eventbus.Event {
	run := update.Run

	switch update.Kind {
	case UpdateRunStarted:
		return events.RunStarted{
			BaseEvent: events.NewBaseEvent(events.RunStartedEvent, run.ID),
			VideoName: run.VideoName,
			Framework: run.Framework,
		}
	case UpdateStageStarted:
		return events.StageStarted{
			BaseEvent: events.NewBaseEvent(events.StageStartedEvent, run.ID),
			Stage:     update.Stage,
			StageName: update.Stage.Name(),
		}
	case UpdateStageCompleted:
		return events.StageCompleted{
			BaseEvent: events.NewBaseEvent(events.StageCompletedEvent, run.ID),
			Stage:     update.Stage,
			StageName: update.Stage.Name(),
		}
	case UpdateLogAppended:
		return events.LogAppended{
			BaseEvent: events.NewBaseEvent(events.LogAppendedEvent, run.ID),
			Entry:     update.Entry,
		}
	case UpdateRunCompleted:
		event := events.RunCompleted{
			BaseEvent:  events.NewBaseEvent(events.RunCompletedEvent, run.ID),
			DurationMs: durationMs(run),
		}
		if run.Validation != nil {
			event.OverallStatus = run.Validation.OverallStatus
			event.SuccessRate = run.Validation.SuccessRate
		}

		return event
	case UpdateRunFailed:
		event := events.RunFailed{
			BaseEvent:  events.NewBaseEvent(events.RunFailedEvent, run.ID),
			Stage:      update.Stage,
			StageName:  update.Stage.Name(),
			Error:      run.Error,
			DurationMs: durationMs(run),
		}
		if update.Err != nil {
			event.Error = update.Err.Error()
		}

		return event
	default:
		return nil
	}
}

func durationMs(run models.PipelineRun) int64 {
	if run.StartedAt == nil || run.FinishedAt == nil {
		return 0
	}

	return run.FinishedAt.Sub(*run.StartedAt).Milliseconds()
}

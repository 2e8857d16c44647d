package pipeline

import (
	"context"

	"github.com/observe2agent/observe2agent/pkg/models"
)

type UpdateKind string

const (
	UpdateRunStarted     UpdateKind = "run_started"
	UpdateStageStarted   UpdateKind = "stage_started"
	UpdateStageCompleted UpdateKind = "stage_completed"
	UpdateLogAppended    UpdateKind = "log_appended"
	UpdateRunCompleted   UpdateKind = "run_completed"
	UpdateRunFailed      UpdateKind = "run_failed"
)

// Update describes one observable change. Run is the snapshot after the
// change and must be treated as read-only.
type Update struct {
	Kind  UpdateKind
	Run   models.PipelineRun
	Stage models.Stage
	Entry models.LogEntry
	Err   error
}

// Listener is called synchronously on the run's goroutine, in order.
// It must not call back into the engine's Run or Start.
type Listener func(ctx context.Context, update Update)

// Package pipeline runs the eight stages of a simulated automation pipeline
// and owns the run state and log stream they produce.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/observe2agent/observe2agent/pkg/generators"
	"github.com/observe2agent/observe2agent/pkg/logstream"
	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyVideoName       = errors.New("video name is required")
	ErrUnsupportedFramework = errors.New("unsupported framework")
	ErrRunInProgress        = errors.New("a pipeline run is already in progress")
)

// Engine owns a single run slot. Only one run may be active at a time; a
// new run replaces the previous run and its log stream.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer
	sampler generators.Sampler
	clock   func() time.Time
	sleep   Sleeper
	gen     Generators

	mu     sync.RWMutex
	run    models.PipelineRun
	stream *logstream.Stream
	active bool

	listenersMu  sync.RWMutex
	listeners    map[int]Listener
	nextListener int
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		logger:    slog.Default(),
		tracer:    otelhelper.NoopTracer(),
		sampler:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:     time.Now,
		sleep:     sleep,
		gen:       DefaultGenerators(),
		run:       models.NewIdleRun(),
		listeners: make(map[int]Listener),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.stream = logstream.New(e.clock)
	e.logger = e.logger.With("module", "pipeline")

	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Snapshot returns a deep copy of the current run.
func (e *Engine) Snapshot() models.PipelineRun {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.run.Clone()
}

// Running reports whether a run currently occupies the slot.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.active
}

// Logs returns the current run's log entries.
func (e *Engine) Logs() []models.LogEntry {
	return e.currentStream().Entries()
}

// LogsSince returns entries of the current run after sequence number seq.
func (e *Engine) LogsSince(seq int) []models.LogEntry {
	return e.currentStream().Since(seq)
}

// CurrentLogs returns the current run's ID together with its entries after
// sequence number seq. Both come from the same run even when a new run claims
// the slot concurrently.
func (e *Engine) CurrentLogs(seq int) (string, []models.LogEntry) {
	e.mu.RLock()
	id, stream := e.run.ID, e.stream
	e.mu.RUnlock()

	return id, stream.Since(seq)
}

func (e *Engine) currentStream() *logstream.Stream {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.stream
}

// Subscribe registers listener and returns a func that removes it.
func (e *Engine) Subscribe(listener Listener) func() {
	id := e.subscribe(listener)

	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()

		delete(e.listeners, id)
	}
}

func (e *Engine) subscribe(listener Listener) int {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()

	id := e.nextListener
	e.nextListener++
	e.listeners[id] = listener

	return id
}

func (e *Engine) notify(ctx context.Context, update Update) {
	e.listenersMu.RLock()
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	e.listenersMu.RUnlock()

	// Registration order.
	slices.Sort(ids)

	for _, id := range ids {
		e.listenersMu.RLock()
		listener, ok := e.listeners[id]
		e.listenersMu.RUnlock()

		if ok {
			listener(ctx, update)
		}
	}
}

// Run executes a complete pipeline and blocks until it reaches a terminal
// status. A failed run is reported through the returned run, not the error;
// the error is set only when the run could not start.
func (e *Engine) Run(ctx context.Context, videoName string, framework models.Framework) (models.PipelineRun, error) {
	_, done, err := e.Start(ctx, videoName, framework)
	if err != nil {
		return models.PipelineRun{}, err
	}

	return <-done, nil
}

// Start validates the request, claims the run slot and runs the pipeline on
// its own goroutine. It returns the initial snapshot and a channel that
// receives the final snapshot.
func (e *Engine) Start(ctx context.Context, videoName string, framework models.Framework) (models.PipelineRun, <-chan models.PipelineRun, error) {
	if strings.TrimSpace(videoName) == "" {
		return models.PipelineRun{}, nil, ErrEmptyVideoName
	}

	if !framework.Valid() {
		return models.PipelineRun{}, nil, fmt.Errorf("%w: %q", ErrUnsupportedFramework, framework)
	}

	initial, err := e.claim(videoName, framework)
	if err != nil {
		return models.PipelineRun{}, nil, err
	}

	done := make(chan models.PipelineRun, 1)

	go func() {
		defer close(done)

		done <- e.drive(ctx, initial)
	}()

	return initial.Clone(), done, nil
}

func (e *Engine) claim(videoName string, framework models.Framework) (models.PipelineRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		return models.PipelineRun{}, ErrRunInProgress
	}

	started := e.clock().UTC()

	run := models.NewIdleRun()
	run.ID = models.NewRunID()
	run.VideoName = videoName
	run.Framework = framework
	run.StartedAt = &started
	run = run.WithStatus(models.RunStatusRunning)

	e.run = run
	e.stream = logstream.New(e.clock)
	e.active = true

	return run, nil
}

func (e *Engine) drive(ctx context.Context, run models.PipelineRun) models.PipelineRun {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "pipeline.run",
		attribute.String(otelhelper.RunIDKey, run.ID),
		attribute.String(otelhelper.VideoNameKey, run.VideoName),
		attribute.String(otelhelper.FrameworkKey, string(run.Framework)),
	)
	defer span.End()

	logger := e.logger.With("run_id", run.ID)
	logger.InfoContext(ctx, "pipeline run started", "video_name", run.VideoName, "framework", run.Framework)

	e.notify(ctx, Update{Kind: UpdateRunStarted, Run: run})
	e.log(ctx, fmt.Sprintf("Starting pipeline for %s (%s)", run.VideoName, run.Framework))

	for _, stage := range models.Stages() {
		run = e.commit(run.WithStage(stage))

		if err := ctx.Err(); err != nil {
			return e.fail(ctx, span, run, fmt.Errorf("run cancelled: %w", err))
		}

		next, err := e.runStage(ctx, run, stage)
		if err != nil {
			return e.fail(ctx, span, run, err)
		}

		run = next
	}

	run = e.commit(run.WithCompletion(e.clock().UTC()))

	e.log(ctx, fmt.Sprintf("Pipeline completed: overall status %s", run.Validation.OverallStatus))
	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(run.Status)))
	logger.InfoContext(ctx, "pipeline run completed",
		"overall_status", run.Validation.OverallStatus,
		"success_rate", run.Validation.SuccessRate)

	e.notify(ctx, Update{Kind: UpdateRunCompleted, Run: run, Stage: run.Stage})
	e.release()

	return run.Clone()
}

func (e *Engine) runStage(ctx context.Context, run models.PipelineRun, stage models.Stage) (models.PipelineRun, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "pipeline.stage",
		attribute.String(otelhelper.RunIDKey, run.ID),
		attribute.Int(otelhelper.StageKey, int(stage)),
		attribute.String(otelhelper.StageNameKey, stage.Name()),
	)
	defer span.End()

	e.log(ctx, fmt.Sprintf("[%d/%d] %s: starting", stage, models.StageCount, stage.Name()))
	e.notify(ctx, Update{Kind: UpdateStageStarted, Run: run, Stage: stage})

	next, summary, err := e.work(stage, run)
	if err == nil {
		err = e.sleep(ctx, e.cfg.StageDelay)
	}

	if err != nil {
		otelhelper.SetError(span, err, attribute.Int(otelhelper.StageKey, int(stage)))

		return run, err
	}

	next = e.commit(next)

	e.log(ctx, fmt.Sprintf("[%d/%d] %s: completed - %s", stage, models.StageCount, stage.Name(), summary))
	e.notify(ctx, Update{Kind: UpdateStageCompleted, Run: next, Stage: stage})

	return next, nil
}

func (e *Engine) fail(ctx context.Context, span trace.Span, run models.PipelineRun, err error) models.PipelineRun {
	run = e.commit(run.WithFailure(err, e.clock().UTC()))

	e.log(ctx, fmt.Sprintf("Pipeline failed at stage %d (%s): %v", run.Stage, run.Stage.Name(), err))
	otelhelper.SetError(span, err, attribute.Int(otelhelper.StageKey, int(run.Stage)))
	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(run.Status)))
	e.logger.ErrorContext(ctx, "pipeline run failed", "run_id", run.ID, "stage", run.Stage.Name(), "error", err)

	e.notify(ctx, Update{Kind: UpdateRunFailed, Run: run, Stage: run.Stage, Err: err})
	e.release()

	return run.Clone()
}

func (e *Engine) commit(run models.PipelineRun) models.PipelineRun {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.run = run

	return run
}

func (e *Engine) release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.active = false
}

func (e *Engine) log(ctx context.Context, message string) {
	entry := e.currentStream().Append(message)

	e.mu.RLock()
	run := e.run
	e.mu.RUnlock()

	e.notify(ctx, Update{Kind: UpdateLogAppended, Run: run, Stage: run.Stage, Entry: entry})
}

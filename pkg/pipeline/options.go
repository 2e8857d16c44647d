package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/observe2agent/observe2agent/pkg/generators"
	"github.com/observe2agent/observe2agent/pkg/models"
	"go.opentelemetry.io/otel/trace"
)

// Sleeper suspends the run for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Generators are the stage functions the engine calls. Tests replace
// individual entries to inject faults.
type Generators struct {
	Upload        func(videoName string) (string, error)
	Analyze       func(videoID string) (*models.AnalysisResult, error)
	DetectSystems func(analysis *models.AnalysisResult) (*models.SystemsDetectionResult, error)
	GenerateSOP   func(analysis *models.AnalysisResult, createdAt time.Time) (*models.SOPDocument, error)
	MapECM        func(sop *models.SOPDocument, systems *models.SystemsDetectionResult) (*models.ECMMapping, error)
	GenerateCode  func(sop *models.SOPDocument, framework models.Framework) (*models.GeneratedCode, error)
	Execute       func(sop *models.SOPDocument, opts generators.ExecutionOptions) (*models.ExecutionSummary, error)
	Validate      func(sop *models.SOPDocument, execution *models.ExecutionSummary, opts generators.ValidationOptions) (*models.ValidationReport, error)
}

func DefaultGenerators() Generators {
	return Generators{
		Upload:        generators.Upload,
		Analyze:       generators.Analyze,
		DetectSystems: generators.DetectSystems,
		GenerateSOP:   generators.GenerateSOP,
		MapECM:        generators.MapECM,
		GenerateCode:  generators.GenerateCode,
		Execute:       generators.Execute,
		Validate:      generators.Validate,
	}
}

// merge replaces the receiver's entries with the non-nil entries of o.
func (g Generators) merge(o Generators) Generators {
	if o.Upload != nil {
		g.Upload = o.Upload
	}

	if o.Analyze != nil {
		g.Analyze = o.Analyze
	}

	if o.DetectSystems != nil {
		g.DetectSystems = o.DetectSystems
	}

	if o.GenerateSOP != nil {
		g.GenerateSOP = o.GenerateSOP
	}

	if o.MapECM != nil {
		g.MapECM = o.MapECM
	}

	if o.GenerateCode != nil {
		g.GenerateCode = o.GenerateCode
	}

	if o.Execute != nil {
		g.Execute = o.Execute
	}

	if o.Validate != nil {
		g.Validate = o.Validate
	}

	return g
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithSampler sets the random source for step outcomes.
func WithSampler(sampler generators.Sampler) Option {
	return func(e *Engine) { e.sampler = sampler }
}

// WithSeed makes step outcomes reproducible.
func WithSeed(seed uint64) Option {
	return WithSampler(generators.NewSampler(seed))
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithSleeper(sleeper Sleeper) Option {
	return func(e *Engine) { e.sleep = sleeper }
}

func WithGenerators(g Generators) Option {
	return func(e *Engine) { e.gen = e.gen.merge(g) }
}

// WithListener subscribes listener for the engine's lifetime.
func WithListener(listener Listener) Option {
	return func(e *Engine) { e.subscribe(listener) }
}

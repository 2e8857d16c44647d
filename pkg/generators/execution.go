package generators

import (
	"fmt"
	"math/rand/v2"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/scoring"
)

// DefaultSuccessProbability is the chance an individual step executes cleanly.
const DefaultSuccessProbability = 0.92

// FailureOutput replaces a step's expected output when it fails.
const FailureOutput = "Element not found"

// Sampler is the source of randomness for step outcomes. *rand.Rand from
// math/rand/v2 satisfies it.
type Sampler interface {
	Float64() float64
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func() float64

func (f SamplerFunc) Float64() float64 { return f() }

// ExecutionOptions configures Execute.
type ExecutionOptions struct {
	Framework          models.Framework
	SuccessProbability float64
	Sampler            Sampler
}

// Execute simulates running each SOP step. Each step independently passes
// when the sampler draws a value below the success probability.
func Execute(sop *models.SOPDocument, opts ExecutionOptions) (*models.ExecutionSummary, error) {
	if sop == nil {
		return nil, ErrNilArtifact
	}

	if len(sop.Steps) == 0 {
		return nil, ErrNoSOPSteps
	}

	if err := checkStepNumbering(sop); err != nil {
		return nil, err
	}

	if opts.Sampler == nil {
		return nil, fmt.Errorf("%w: sampler", ErrNilArtifact)
	}

	if opts.SuccessProbability < 0 || opts.SuccessProbability > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProbability, opts.SuccessProbability)
	}

	results := make([]models.ExecutionStepResult, 0, len(sop.Steps))
	passed := 0

	for _, step := range sop.Steps {
		result := models.ExecutionStepResult{
			StepNumber: step.StepNumber,
			Title:      step.Title,
			Status:     models.StepStatusFailed,
			Output:     FailureOutput,
		}

		if opts.Sampler.Float64() < opts.SuccessProbability {
			result.Status = models.StepStatusCompleted
			result.Output = step.ExpectedOutput
			passed++
		}

		results = append(results, result)
	}

	total := len(results)

	return &models.ExecutionSummary{
		ExecutionID: models.NewExecutionID(),
		SOPID:       sop.ID,
		Framework:   opts.Framework,
		Status:      scoring.ExecutionStatus(passed, total),
		PassedSteps: passed,
		FailedSteps: total - passed,
		TotalSteps:  total,
		SuccessRate: scoring.Rate(passed, total),
		StepResults: results,
	}, nil
}

// NewSampler returns a reproducible sampler for seed.
func NewSampler(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

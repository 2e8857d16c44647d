package generators

import (
	"fmt"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/scoring"
)

const (
	RecommendationAllPassed     = "All steps passed. Consider adding edge case tests."
	RecommendationReviewFailed  = "Review failed steps and update element selectors for changed UI."
	missingExecutionResultValue = "No data"
)

// ValidationOptions configures Validate.
type ValidationOptions struct {
	StepThresholds    scoring.Thresholds
	OverallThresholds scoring.Thresholds

	// Permissive substitutes a "No data" failed step when an execution result
	// is missing instead of returning ErrMissingExecutionResult.
	Permissive bool
}

// DefaultValidationOptions uses the standard step and overall thresholds.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		StepThresholds:    scoring.StepThresholds,
		OverallThresholds: scoring.OverallThresholds,
	}
}

// Validate scores every SOP step against its execution result.
func Validate(
	sop *models.SOPDocument,
	execution *models.ExecutionSummary,
	opts ValidationOptions,
) (*models.ValidationReport, error) {
	if sop == nil || execution == nil {
		return nil, ErrNilArtifact
	}

	if len(sop.Steps) == 0 {
		return nil, ErrNoSOPSteps
	}

	if err := checkStepNumbering(sop); err != nil {
		return nil, err
	}

	if err := checkUniqueResults(execution); err != nil {
		return nil, err
	}

	if err := opts.StepThresholds.Validate(); err != nil {
		return nil, fmt.Errorf("step thresholds: %w", err)
	}

	if err := opts.OverallThresholds.Validate(); err != nil {
		return nil, fmt.Errorf("overall thresholds: %w", err)
	}

	steps := make([]models.ValidationStep, 0, len(sop.Steps))
	passed := 0

	for _, step := range sop.Steps {
		result, ok := execution.StepResult(step.StepNumber)
		if !ok && !opts.Permissive {
			return nil, fmt.Errorf("%w: step %d of execution %s", ErrMissingExecutionResult, step.StepNumber, execution.ExecutionID)
		}

		validation := models.ValidationStep{
			StepNumber: step.StepNumber,
			Title:      step.Title,
			Expected:   step.ExpectedOutput,
			Actual:     missingExecutionResultValue,
			Status:     models.ValidationStatusFailed,
		}

		if ok {
			validation.Actual = result.Output
			validation.MatchScore = scoring.MatchScore(result.Status)
			validation.Status = scoring.Classify(validation.MatchScore, opts.StepThresholds).ValidationStatus()
		}

		if validation.Status == models.ValidationStatusPassed {
			passed++
		}

		steps = append(steps, validation)
	}

	total := len(steps)
	rate := scoring.Rate(passed, total)

	recommendations := []string{RecommendationAllPassed}
	if rate < 1.0 {
		recommendations = []string{RecommendationReviewFailed}
	}

	return &models.ValidationReport{
		ID:              models.NewValidationID(),
		SOPID:           sop.ID,
		ExecutionID:     execution.ExecutionID,
		OverallStatus:   scoring.Classify(rate, opts.OverallThresholds).ValidationStatus(),
		PassedSteps:     passed,
		FailedSteps:     total - passed,
		TotalSteps:      total,
		SuccessRate:     rate,
		ValidationSteps: steps,
		Recommendations: recommendations,
	}, nil
}

func checkUniqueResults(execution *models.ExecutionSummary) error {
	seen := make(map[int]struct{}, len(execution.StepResults))

	for _, result := range execution.StepResults {
		if _, ok := seen[result.StepNumber]; ok {
			return fmt.Errorf("%w: step %d of execution %s", ErrDuplicateStepResult, result.StepNumber, execution.ExecutionID)
		}

		seen[result.StepNumber] = struct{}{}
	}

	return nil
}

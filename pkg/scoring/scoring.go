// Package scoring maps numeric scores and pass rates onto status categories.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/observe2agent/observe2agent/pkg/models"
)

// Grade is the outcome of classifying a score.
type Grade string

const (
	GradePassed  Grade = "passed"
	GradePartial Grade = "partial"
	GradeFailed  Grade = "failed"
)

// Match scores assigned by validation. A failed execution step scores
// 0.16 ("mostly wrong"), which sits below every partial threshold in use, so
// partial is not reachable for a single step with these values.
const (
	MatchScoreCompleted = 1.0
	MatchScoreFailed    = 0.16
)

var ErrInvalidThresholds = errors.New("invalid thresholds")

// Thresholds is a strictly ordered (Pass, Partial) pair.
type Thresholds struct {
	Pass    float64 `json:"pass"    yaml:"pass"`
	Partial float64 `json:"partial" yaml:"partial"`
}

var (
	// StepThresholds classify a single validation step by match score.
	StepThresholds = Thresholds{Pass: 0.8, Partial: 0.5}

	// OverallThresholds classify a validation report by pass rate.
	OverallThresholds = Thresholds{Pass: 0.95, Partial: 0.5}
)

func NewThresholds(pass, partial float64) (Thresholds, error) {
	t := Thresholds{Pass: pass, Partial: partial}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}

	return t, nil
}

// Validate checks 0 <= Partial < Pass <= 1.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.Pass) || math.IsNaN(t.Partial) {
		return fmt.Errorf("%w: (%v, %v) must be numbers", ErrInvalidThresholds, t.Pass, t.Partial)
	}

	if t.Partial < 0 || t.Pass > 1 {
		return fmt.Errorf("%w: (%v, %v) must lie within [0, 1]", ErrInvalidThresholds, t.Pass, t.Partial)
	}

	if t.Partial >= t.Pass {
		return fmt.Errorf("%w: pass %v must be greater than partial %v", ErrInvalidThresholds, t.Pass, t.Partial)
	}

	return nil
}

// Classify grades score against t.
func Classify(score float64, t Thresholds) Grade {
	switch {
	case score >= t.Pass:
		return GradePassed
	case score >= t.Partial:
		return GradePartial
	default:
		return GradeFailed
	}
}

// Rate returns passed/total, or 0 when total is 0.
func Rate(passed, total int) float64 {
	if total <= 0 {
		return 0
	}

	return float64(passed) / float64(total)
}

// MatchScore is the similarity assigned to an execution step outcome.
func MatchScore(status models.StepStatus) float64 {
	if status == models.StepStatusCompleted {
		return MatchScoreCompleted
	}

	return MatchScoreFailed
}

// ValidationStatus converts a grade into the report vocabulary.
func (g Grade) ValidationStatus() models.ValidationStatus {
	switch g {
	case GradePassed:
		return models.ValidationStatusPassed
	case GradePartial:
		return models.ValidationStatusPartial
	default:
		return models.ValidationStatusFailed
	}
}

// ExecutionStatus reports completed only when every step passed.
func ExecutionStatus(passed, total int) models.ExecutionStatus {
	if Classify(Rate(passed, total), Thresholds{Pass: 1, Partial: 0}) == GradePassed && total > 0 {
		return models.ExecutionStatusCompleted
	}

	return models.ExecutionStatusPartial
}

package generators

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/observe2agent/observe2agent/pkg/models"
)

const (
	sopVersion         = "1.0"
	sopSuccessCriteria = "All SOP steps complete and every expected output is observed"
	sopPreconditions   = "Valid user credentials; Network connectivity; System availability; Browser installed"
	sopErrorHandling   = "Retry on timeout; Flag low-confidence steps; Rollback on DB error"
	sopTitleWords      = 6
)

// GenerateSOP turns the analysed workflow into a standard operating procedure,
// one SOP step per workflow step in the same order. createdAt stamps the
// document.
func GenerateSOP(analysis *models.AnalysisResult, createdAt time.Time) (*models.SOPDocument, error) {
	if analysis == nil {
		return nil, ErrNilArtifact
	}

	if len(analysis.WorkflowSteps) == 0 {
		return nil, ErrNoWorkflowSteps
	}

	steps := make([]models.SOPStep, 0, len(analysis.WorkflowSteps))
	systems := []string{}

	for i, ws := range analysis.WorkflowSteps {
		if ws.StepNumber != i+1 {
			return nil, ErrInvalidStepNumbering
		}

		steps = append(steps, models.SOPStep{
			StepNumber:     ws.StepNumber,
			Title:          ws.Title,
			Description:    ws.Description,
			SystemInvolved: ws.System,
			ActionType:     ws.ActionType,
			ExpectedOutput: ws.ExpectedOutput,
		})

		if ws.System != "" && !slices.Contains(systems, ws.System) {
			systems = append(systems, ws.System)
		}
	}

	return &models.SOPDocument{
		ID:              models.NewSOPID(),
		Title:           sopTitle(analysis.ProcessSummary),
		Description:     analysis.ProcessSummary,
		Version:         sopVersion,
		VideoSourceID:   analysis.VideoID,
		SystemsInvolved: systems,
		Steps:           steps,
		SuccessCriteria: sopSuccessCriteria,
		Preconditions:   sopPreconditions,
		ErrorHandling:   sopErrorHandling,
		CreatedAt:       createdAt.UTC(),
	}, nil
}

// checkStepNumbering reports whether the SOP's steps are numbered 1..n in
// order, which also makes every step number unique.
func checkStepNumbering(sop *models.SOPDocument) error {
	for i, step := range sop.Steps {
		if step.StepNumber != i+1 {
			return fmt.Errorf("%w: step %d at position %d", ErrInvalidStepNumbering, step.StepNumber, i+1)
		}
	}

	return nil
}

func sopTitle(summary string) string {
	words := strings.Fields(summary)
	if len(words) == 0 {
		return "Business Process Automation"
	}

	if len(words) <= sopTitleWords {
		return strings.Join(words, " ")
	}

	return strings.Join(words[:sopTitleWords], " ") + "..."
}

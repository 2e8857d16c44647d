package models

// StepStatus is the outcome of executing a single SOP step.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// ExecutionStatus is the aggregate outcome of an execution.
type ExecutionStatus string

const (
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusPartial   ExecutionStatus = "partial"
)

// ExecutionStepResult references a SOPStep by step number.
type ExecutionStepResult struct {
	StepNumber int        `json:"step_number" validate:"required,min=1"`
	Title      string     `json:"title"`
	Status     StepStatus `json:"status"      validate:"required,oneof=completed failed"`
	Output     string     `json:"output"`
}

// ExecutionSummary is the stage 7 artifact, shaped like POST /api/executions/run.
type ExecutionSummary struct {
	ExecutionID string                `json:"execution_id" validate:"required"`
	SOPID       string                `json:"sop_id"`
	Framework   Framework             `json:"framework"`
	Status      ExecutionStatus       `json:"status"`
	PassedSteps int                   `json:"passed_steps"`
	FailedSteps int                   `json:"failed_steps"`
	TotalSteps  int                   `json:"total_steps"`
	SuccessRate float64               `json:"success_rate"`
	StepResults []ExecutionStepResult `json:"step_results" validate:"dive"`
}

// StepResult returns the result recorded for stepNumber.
func (e *ExecutionSummary) StepResult(stepNumber int) (ExecutionStepResult, bool) {
	for _, result := range e.StepResults {
		if result.StepNumber == stepNumber {
			return result, true
		}
	}

	return ExecutionStepResult{}, false
}

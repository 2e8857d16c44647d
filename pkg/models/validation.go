package models

// ValidationStatus classifies a validation step or a whole report.
type ValidationStatus string

const (
	ValidationStatusPassed  ValidationStatus = "passed"
	ValidationStatusPartial ValidationStatus = "partial"
	ValidationStatusFailed  ValidationStatus = "failed"
)

// ValidationStep compares one SOP step's expected output with what execution produced.
type ValidationStep struct {
	StepNumber int              `json:"step_number"`
	Title      string           `json:"title"`
	Status     ValidationStatus `json:"status"`
	MatchScore float64          `json:"match_score"`
	Expected   string           `json:"expected"`
	Actual     string           `json:"actual"`
}

// ValidationReport is the stage 8 artifact, shaped like POST /api/validation/validate.
type ValidationReport struct {
	ID              string           `json:"id"`
	SOPID           string           `json:"sop_id"`
	ExecutionID     string           `json:"execution_id"`
	OverallStatus   ValidationStatus `json:"overall_status"`
	PassedSteps     int              `json:"passed_steps"`
	FailedSteps     int              `json:"failed_steps"`
	TotalSteps      int              `json:"total_steps"`
	SuccessRate     float64          `json:"success_rate"`
	ValidationSteps []ValidationStep `json:"validation_steps"`
	Recommendations []string         `json:"recommendations"`
}

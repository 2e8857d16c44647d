package models

import "time"

// SOPStep is derived 1:1 from a WorkflowStep; timing and UI detail are dropped.
type SOPStep struct {
	StepNumber     int        `json:"step_number"     validate:"required,min=1"`
	Title          string     `json:"title"           validate:"required"`
	Description    string     `json:"description"`
	SystemInvolved string     `json:"system_involved" validate:"required"`
	ActionType     ActionType `json:"action_type"     validate:"required"`
	ExpectedOutput string     `json:"expected_output"`
}

// SOPDocument is the stage 4 artifact, also returned by POST /api/sops/generate.
type SOPDocument struct {
	ID              string    `json:"id"               validate:"required"`
	Title           string    `json:"title"            validate:"required"`
	Description     string    `json:"description"`
	Version         string    `json:"version"`
	VideoSourceID   string    `json:"video_source_id"  validate:"required"`
	SystemsInvolved []string  `json:"systems_involved"`
	Steps           []SOPStep `json:"steps"            validate:"required,min=1,dive"`
	SuccessCriteria string    `json:"success_criteria"`
	Preconditions   string    `json:"preconditions,omitempty"`
	ErrorHandling   string    `json:"error_handling,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

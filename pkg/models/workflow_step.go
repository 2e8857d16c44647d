package models

// ActionType tags what the operator did in a recorded workflow step.
// The set is open; these are the values the analysis stage emits.
type ActionType string

const (
	ActionTypeNavigate ActionType = "navigate"
	ActionTypeInput    ActionType = "input"
	ActionTypeClick    ActionType = "click"
	ActionTypeWait     ActionType = "wait"
)

// WorkflowStep is one observed step of the business process recorded in a video.
type WorkflowStep struct {
	StepNumber     int        `json:"step_number"     validate:"required,min=1"`
	Title          string     `json:"title"           validate:"required"`
	Description    string     `json:"description"`
	ActionType     ActionType `json:"action_type"     validate:"required"`
	System         string     `json:"system"          validate:"required"`
	UIElements     []string   `json:"ui_elements"`
	ExpectedOutput string     `json:"expected_output"`
	Timestamp      float64    `json:"timestamp"       validate:"min=0"` // seconds from run start
	Duration       float64    `json:"duration"        validate:"min=0"` // seconds
}

// End returns the offset at which the step finishes.
func (s WorkflowStep) End() float64 {
	return s.Timestamp + s.Duration
}

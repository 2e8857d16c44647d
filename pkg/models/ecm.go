package models

// Complexity is a coarse automation effort estimate for a SOP step.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// StepMapping ties one SOP step to the system and data it touches.
type StepMapping struct {
	StepNumber     int        `json:"step_number"`
	StepTitle      string     `json:"step_title"`
	SystemInvolved string     `json:"system_involved"`
	ActionType     ActionType `json:"action_type"`
	DataInvolved   []string   `json:"data_involved"`
	Automatable    bool       `json:"automatable"`
	Complexity     Complexity `json:"complexity"`
}

// SystemInteraction is a data hand-off between two systems used by the same SOP.
type SystemInteraction struct {
	SourceSystem    string `json:"source_system"`
	TargetSystem    string `json:"target_system"`
	InteractionType string `json:"interaction_type"`
	Bidirectional   bool   `json:"bidirectional"`
}

// RetryPolicy is part of a generated integration config.
type RetryPolicy struct {
	MaxRetries    int     `json:"max_retries"`
	BackoffFactor float64 `json:"backoff_factor"`
}

// IntegrationConfig describes how generated automation reaches a system.
type IntegrationConfig struct {
	APIEndpoint    string      `json:"api_endpoint"`
	Authentication string      `json:"authentication"`
	RetryPolicy    RetryPolicy `json:"retry_policy"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	RateLimit      string      `json:"rate_limit"`
}

// ECMMapping is produced during the ECM Mapping stage. The run only logs its summary.
type ECMMapping struct {
	SOPID                 string                       `json:"sop_id"`
	ProcessSystemMapping  []StepMapping                `json:"process_system_mapping"`
	SystemInteractions    []SystemInteraction          `json:"system_interactions"`
	IntegrationConfig     map[string]IntegrationConfig `json:"integration_config"`
	TotalAutomatableSteps int                          `json:"total_automatable_steps"`
	AutomationCoverage    float64                      `json:"automation_coverage"`
}

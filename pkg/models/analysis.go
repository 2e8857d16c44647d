package models

// SystemType classifies an enterprise system seen in a video.
type SystemType string

const (
	SystemTypeERP                SystemType = "erp"
	SystemTypeCRM                SystemType = "crm"
	SystemTypeEmail              SystemType = "email"
	SystemTypeDocumentManagement SystemType = "document_management"
	SystemTypeWorkflow           SystemType = "workflow"
	SystemTypeOther              SystemType = "other"
)

// DetectedSystem is an enterprise application recognised during analysis.
type DetectedSystem struct {
	Name            string     `json:"name"              validate:"required"`
	SystemType      SystemType `json:"system_type"       validate:"required"`
	Confidence      float64    `json:"confidence"        validate:"min=0,max=1"`
	Version         string     `json:"version"`
	UIElements      []string   `json:"ui_elements,omitempty"`
	FirstDetectedAt float64    `json:"first_detected_at"`
}

// ExtractionPattern describes a data field the analysis learned to extract.
type ExtractionPattern struct {
	Field      string  `json:"field"`
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
	Example    string  `json:"example"`
}

// AnalysisResult is the stage 2 artifact.
type AnalysisResult struct {
	VideoID                       string              `json:"video_id"`
	VideoDurationSeconds          float64             `json:"video_duration_seconds"`
	FramesAnalyzed                int                 `json:"frames_analyzed"`
	WorkflowSteps                 []WorkflowStep      `json:"workflow_steps"`
	SystemsDetected               []DetectedSystem    `json:"systems_detected"`
	DataExtractionPatterns        []ExtractionPattern `json:"data_extraction_patterns"`
	ProcessSummary                string              `json:"process_summary"`
	SuccessIndicators             []string            `json:"success_indicators"`
	EstimatedExecutionTimeMinutes float64             `json:"estimated_execution_time_minutes"`
}

// SystemsDetectionResult is the stage 3 artifact.
type SystemsDetectionResult struct {
	VideoID            string           `json:"video_id"`
	TotalSystemsFound  int              `json:"total_systems_found"`
	DetectedSystems    []DetectedSystem `json:"detected_systems"`
	DetectedWorkflows  []string         `json:"detected_workflows"`
	AnalysisConfidence float64          `json:"analysis_confidence"`
}

package models

// Stage indexes the eight phases of a pipeline run. StageIdle means not started.
type Stage int

const (
	StageIdle Stage = iota
	StageUpload
	StageAnalysis
	StageDetection
	StageSOPGeneration
	StageECMMapping
	StageCodeGeneration
	StageExecution
	StageValidation
)

// StageCount is the number of stages a completed run has visited.
const StageCount = int(StageValidation)

var stageNames = map[Stage]string{
	StageIdle:           "Idle",
	StageUpload:         "Upload",
	StageAnalysis:       "Analysis",
	StageDetection:      "Detection",
	StageSOPGeneration:  "SOP Generation",
	StageECMMapping:     "ECM Mapping",
	StageCodeGeneration: "Code Generation",
	StageExecution:      "Execution",
	StageValidation:     "Validation",
}

// Stages returns stages 1..8 in execution order.
func Stages() []Stage {
	return []Stage{
		StageUpload,
		StageAnalysis,
		StageDetection,
		StageSOPGeneration,
		StageECMMapping,
		StageCodeGeneration,
		StageExecution,
		StageValidation,
	}
}

func (s Stage) Name() string {
	if name, ok := stageNames[s]; ok {
		return name
	}

	return "Unknown"
}

func (s Stage) String() string {
	return s.Name()
}

package generators

import (
	"slices"

	"github.com/observe2agent/observe2agent/pkg/models"
)

var workflowLabels = map[models.ActionType]string{
	models.ActionTypeInput:    "Form Filling",
	models.ActionTypeNavigate: "System Navigation",
	models.ActionTypeClick:    "UI Interaction",
	models.ActionTypeWait:     "Background Processing",
}

// DetectSystems derives the detection summary from an analysis.
//
// The detected systems are passed through unfiltered; no confidence threshold
// is applied at this stage.
func DetectSystems(analysis *models.AnalysisResult) (*models.SystemsDetectionResult, error) {
	if analysis == nil {
		return nil, ErrNilArtifact
	}

	systems := slices.Clone(analysis.SystemsDetected)

	confidence := 0.0
	for _, system := range systems {
		confidence += system.Confidence
	}

	if len(systems) > 0 {
		confidence /= float64(len(systems))
	}

	return &models.SystemsDetectionResult{
		VideoID:            analysis.VideoID,
		TotalSystemsFound:  len(systems),
		DetectedSystems:    systems,
		DetectedWorkflows:  detectWorkflows(analysis.WorkflowSteps),
		AnalysisConfidence: confidence,
	}, nil
}

func detectWorkflows(steps []models.WorkflowStep) []string {
	workflows := []string{}

	for _, step := range steps {
		label, ok := workflowLabels[step.ActionType]
		if !ok || slices.Contains(workflows, label) {
			continue
		}

		workflows = append(workflows, label)
	}

	slices.Sort(workflows)

	return workflows
}

package generators

import (
	"strings"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/scoring"
)

const highComplexityFields = 3

var dataKeywords = []string{
	"vendor", "material", "quantity", "date", "cost", "PO", "order",
	"username", "password", "number", "email", "price",
}

// MapECM maps each SOP step onto the systems and data it touches and derives
// an integration config for every detected system.
func MapECM(sop *models.SOPDocument, systems *models.SystemsDetectionResult) (*models.ECMMapping, error) {
	if sop == nil || systems == nil {
		return nil, ErrNilArtifact
	}

	if len(sop.Steps) == 0 {
		return nil, ErrNoSOPSteps
	}

	mapping := make([]models.StepMapping, 0, len(sop.Steps))
	automatable := 0

	for _, step := range sop.Steps {
		m := models.StepMapping{
			StepNumber:     step.StepNumber,
			StepTitle:      step.Title,
			SystemInvolved: step.SystemInvolved,
			ActionType:     step.ActionType,
			DataInvolved:   extractDataFields(step.Description),
			Automatable:    step.ActionType != "",
			Complexity:     assessComplexity(step),
		}
		if m.Automatable {
			automatable++
		}

		mapping = append(mapping, m)
	}

	config := make(map[string]models.IntegrationConfig, len(systems.DetectedSystems))
	for _, system := range systems.DetectedSystems {
		slug := strings.ReplaceAll(strings.ToLower(system.Name), " ", "-")
		config[system.Name] = models.IntegrationConfig{
			APIEndpoint:    "https://api.enterprise.example/" + slug + "/v2",
			Authentication: "OAuth2 + SSO",
			RetryPolicy:    models.RetryPolicy{MaxRetries: 3, BackoffFactor: 1.5},
			TimeoutSeconds: 30,
			RateLimit:      "100 req/min",
		}
	}

	return &models.ECMMapping{
		SOPID:                 sop.ID,
		ProcessSystemMapping:  mapping,
		SystemInteractions:    detectInteractions(sop.SystemsInvolved),
		IntegrationConfig:     config,
		TotalAutomatableSteps: automatable,
		AutomationCoverage:    scoring.Rate(automatable, len(mapping)),
	}, nil
}

func extractDataFields(description string) []string {
	lower := strings.ToLower(description)
	fields := []string{}

	for _, keyword := range dataKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			fields = append(fields, strings.ToUpper(keyword[:1])+keyword[1:])
		}
	}

	if len(fields) == 0 {
		return []string{"General"}
	}

	return fields
}

// assessComplexity rates input steps by how many data fields they fill.
func assessComplexity(step models.SOPStep) models.Complexity {
	if step.ActionType != models.ActionTypeInput {
		return models.ComplexityLow
	}

	if len(extractDataFields(step.Description)) >= highComplexityFields {
		return models.ComplexityHigh
	}

	return models.ComplexityMedium
}

func detectInteractions(systems []string) []models.SystemInteraction {
	interactions := []models.SystemInteraction{}

	for i, source := range systems {
		for _, target := range systems[i+1:] {
			interactions = append(interactions, models.SystemInteraction{
				SourceSystem:    source,
				TargetSystem:    target,
				InteractionType: "data_transfer",
			})
		}
	}

	return interactions
}

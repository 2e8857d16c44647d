package generators

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence returns a sampler that yields values in order and then repeats the last one.
func sequence(values ...float64) Sampler {
	i := 0

	return SamplerFunc(func() float64 {
		v := values[min(i, len(values)-1)]
		i++

		return v
	})
}

var sopCreatedAt = time.Date(2025, 3, 4, 9, 30, 0, 0, time.FixedZone("CET", 3600))

func alwaysPass() Sampler { return SamplerFunc(func() float64 { return 0 }) }
func alwaysFail() Sampler { return SamplerFunc(func() float64 { return 0.99 }) }

func mustSOP(t *testing.T) *models.SOPDocument {
	t.Helper()

	analysis, err := Analyze("video-test0001")
	require.NoError(t, err)

	sop, err := GenerateSOP(analysis, sopCreatedAt)
	require.NoError(t, err)

	return sop
}

func TestUpload(t *testing.T) {
	id, err := Upload("purchase-order.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "video-"))

	_, err = Upload("   ")
	require.ErrorIs(t, err, ErrEmptyVideoName)
}

func TestAnalyze_StructuralValidity(t *testing.T) {
	analysis, err := Analyze("video-abc")
	require.NoError(t, err)

	assert.Equal(t, "video-abc", analysis.VideoID)
	require.Len(t, analysis.WorkflowSteps, 5)

	for i, step := range analysis.WorkflowSteps {
		assert.Equal(t, i+1, step.StepNumber)
		assert.GreaterOrEqual(t, step.Duration, 0.0)
		assert.NotEmpty(t, step.UIElements)

		if i > 0 {
			previous := analysis.WorkflowSteps[i-1]
			assert.Greater(t, step.Timestamp, previous.Timestamp)
			assert.GreaterOrEqual(t, step.Timestamp, previous.End()-1e-9, "steps must not overlap")
		}
	}

	seen := map[float64]bool{}
	for _, system := range analysis.SystemsDetected {
		assert.GreaterOrEqual(t, system.Confidence, 0.0)
		assert.LessOrEqual(t, system.Confidence, 1.0)
		assert.False(t, seen[system.Confidence], "confidences must be distinct")
		seen[system.Confidence] = true
	}

	require.NotEmpty(t, analysis.DataExtractionPatterns)
	for _, pattern := range analysis.DataExtractionPatterns {
		assert.NotEmpty(t, pattern.Field)
		assert.GreaterOrEqual(t, pattern.Confidence, 0.0)
		assert.LessOrEqual(t, pattern.Confidence, 1.0)
	}
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	first, err := Analyze("video-same")
	require.NoError(t, err)

	second, err := Analyze("video-same")
	require.NoError(t, err)

	firstSteps, err := json.Marshal(first.WorkflowSteps)
	require.NoError(t, err)
	secondSteps, err := json.Marshal(second.WorkflowSteps)
	require.NoError(t, err)
	assert.Equal(t, firstSteps, secondSteps)

	firstSystems, err := json.Marshal(first.SystemsDetected)
	require.NoError(t, err)
	secondSystems, err := json.Marshal(second.SystemsDetected)
	require.NoError(t, err)
	assert.Equal(t, firstSystems, secondSystems)
}

func TestAnalyze_RequiresVideoID(t *testing.T) {
	_, err := Analyze("")
	require.ErrorIs(t, err, ErrEmptyVideoID)
}

func TestDetectSystems(t *testing.T) {
	analysis, err := Analyze("video-detect")
	require.NoError(t, err)

	systems, err := DetectSystems(analysis)
	require.NoError(t, err)

	assert.Equal(t, len(systems.DetectedSystems), systems.TotalSystemsFound)
	assert.Equal(t, analysis.SystemsDetected, systems.DetectedSystems, "no threshold filtering")
	assert.Equal(t, []string{"Form Filling", "System Navigation", "UI Interaction"}, systems.DetectedWorkflows)
	assert.InDelta(t, (0.96+0.82+0.71)/3, systems.AnalysisConfidence, 1e-9)
	assert.Equal(t, "video-detect", systems.VideoID)
}

func TestDetectSystems_DoesNotAliasAnalysis(t *testing.T) {
	analysis, err := Analyze("video-alias")
	require.NoError(t, err)

	systems, err := DetectSystems(analysis)
	require.NoError(t, err)

	systems.DetectedSystems[0].Name = "changed"
	assert.Equal(t, "SAP ERP", analysis.SystemsDetected[0].Name)
}

func TestDetectSystems_NilAnalysis(t *testing.T) {
	_, err := DetectSystems(nil)
	require.ErrorIs(t, err, ErrNilArtifact)
}

func TestGenerateSOP_MapsStepsOneToOne(t *testing.T) {
	analysis, err := Analyze("video-sop")
	require.NoError(t, err)

	sop, err := GenerateSOP(analysis, sopCreatedAt)
	require.NoError(t, err)

	require.Len(t, sop.Steps, len(analysis.WorkflowSteps))

	for i, step := range sop.Steps {
		ws := analysis.WorkflowSteps[i]
		assert.Equal(t, ws.StepNumber, step.StepNumber)
		assert.Equal(t, ws.Title, step.Title)
		assert.Equal(t, ws.System, step.SystemInvolved)
		assert.Equal(t, ws.ActionType, step.ActionType)
		assert.Equal(t, ws.ExpectedOutput, step.ExpectedOutput)
	}

	assert.Equal(t, []string{"SAP ERP"}, sop.SystemsInvolved)
	assert.Equal(t, "video-sop", sop.VideoSourceID)
	assert.NotEmpty(t, sop.SuccessCriteria)
	assert.True(t, strings.HasPrefix(sop.ID, "sop-"))
	assert.Equal(t, "SAP Purchase Order Creation - User...", sop.Title)
	assert.Equal(t, time.Date(2025, 3, 4, 8, 30, 0, 0, time.UTC), sop.CreatedAt)
}

func TestGenerateSOP_DistinctSystemsInFirstSeenOrder(t *testing.T) {
	analysis := &models.AnalysisResult{
		VideoID: "video-x",
		WorkflowSteps: []models.WorkflowStep{
			{StepNumber: 1, Title: "a", System: "CRM", ActionType: models.ActionTypeClick},
			{StepNumber: 2, Title: "b", System: "ERP", ActionType: models.ActionTypeClick},
			{StepNumber: 3, Title: "c", System: "CRM", ActionType: models.ActionTypeClick},
		},
	}

	sop, err := GenerateSOP(analysis, sopCreatedAt)
	require.NoError(t, err)

	assert.Equal(t, []string{"CRM", "ERP"}, sop.SystemsInvolved)
	assert.Equal(t, "Business Process Automation", sop.Title)
}

func TestGenerateSOP_Faults(t *testing.T) {
	_, err := GenerateSOP(nil, sopCreatedAt)
	require.ErrorIs(t, err, ErrNilArtifact)

	_, err = GenerateSOP(&models.AnalysisResult{VideoID: "v"}, sopCreatedAt)
	require.ErrorIs(t, err, ErrNoWorkflowSteps)

	_, err = GenerateSOP(&models.AnalysisResult{
		VideoID:       "v",
		WorkflowSteps: []models.WorkflowStep{{StepNumber: 2, Title: "gap"}},
	}, sopCreatedAt)
	require.ErrorIs(t, err, ErrInvalidStepNumbering)
}

func TestMapECM(t *testing.T) {
	analysis, err := Analyze("video-ecm")
	require.NoError(t, err)
	systems, err := DetectSystems(analysis)
	require.NoError(t, err)
	sop, err := GenerateSOP(analysis, sopCreatedAt)
	require.NoError(t, err)

	mapping, err := MapECM(sop, systems)
	require.NoError(t, err)

	require.Len(t, mapping.ProcessSystemMapping, len(sop.Steps))
	assert.Equal(t, sop.ID, mapping.SOPID)
	assert.Equal(t, len(sop.Steps), mapping.TotalAutomatableSteps)
	assert.Equal(t, 1.0, mapping.AutomationCoverage)
	assert.Len(t, mapping.IntegrationConfig, systems.TotalSystemsFound)
	assert.Equal(t, "https://api.enterprise.example/sap-erp/v2", mapping.IntegrationConfig["SAP ERP"].APIEndpoint)
	assert.Empty(t, mapping.SystemInteractions, "a single-system SOP has no hand-offs")

	assert.Equal(t, models.ComplexityLow, mapping.ProcessSystemMapping[0].Complexity)
	assert.Equal(t, models.ComplexityMedium, mapping.ProcessSystemMapping[1].Complexity)
	assert.Equal(t, models.ComplexityHigh, mapping.ProcessSystemMapping[3].Complexity)
	assert.Contains(t, mapping.ProcessSystemMapping[3].DataInvolved, "Vendor")
	assert.Contains(t, mapping.ProcessSystemMapping[1].DataInvolved, "Password")
}

func TestMapECM_Interactions(t *testing.T) {
	sop := &models.SOPDocument{
		ID:              "sop-1",
		SystemsInvolved: []string{"A", "B", "C"},
		Steps:           []models.SOPStep{{StepNumber: 1, Title: "noop", ActionType: models.ActionTypeWait}},
	}

	mapping, err := MapECM(sop, &models.SystemsDetectionResult{})
	require.NoError(t, err)

	require.Len(t, mapping.SystemInteractions, 3)
	assert.Equal(t, "A", mapping.SystemInteractions[0].SourceSystem)
	assert.Equal(t, "B", mapping.SystemInteractions[0].TargetSystem)
	assert.Equal(t, []string{"General"}, mapping.ProcessSystemMapping[0].DataInvolved)
}

func TestGenerateCode_AllFrameworks(t *testing.T) {
	sop := mustSOP(t)

	tests := []struct {
		framework  models.Framework
		files      int
		entryPoint string
		contains   string
	}{
		{models.FrameworkAgent, 3, "_orchestration.py", "class SapPurchaseOrderAgent"},
		{models.FrameworkLegacyWebDriver, 1, "_webdriver.py", "from selenium import webdriver"},
		{models.FrameworkModernAsyncDriver, 1, "_async_driver.py", "async_playwright"},
	}

	for _, tt := range tests {
		t.Run(string(tt.framework), func(t *testing.T) {
			code, err := GenerateCode(sop, tt.framework)
			require.NoError(t, err)

			assert.Equal(t, tt.framework, code.Framework)
			assert.Equal(t, sop.ID, code.SOPID)
			assert.Len(t, code.Files, tt.files)
			assert.True(t, strings.HasSuffix(code.EntryPoint, tt.entryPoint), code.EntryPoint)
			assert.Positive(t, code.TotalLines)

			all := ""
			lines := 0
			for _, content := range code.Files {
				all += content
				lines += strings.Count(content, "\n")
			}

			assert.Contains(t, all, tt.contains)
			assert.Equal(t, lines, code.TotalLines)

			for _, step := range sop.Steps {
				assert.Contains(t, all, step.Title)
			}
		})
	}
}

func TestGenerateCode_AgentStepMethods(t *testing.T) {
	sop := mustSOP(t)

	code, err := GenerateCode(sop, models.FrameworkAgent)
	require.NoError(t, err)

	agent := code.Files[strings.ReplaceAll(sop.ID, "-", "_")+"_agent.py"]
	assert.Contains(t, agent, "async def step_1_open_sap_erp_system(self)")
	assert.Contains(t, agent, "await self.step_5_submit_and_verify_purchase_ord()")
}

func TestGenerateCode_TruncatesIdentifiersOnRuneBoundaries(t *testing.T) {
	sop := &models.SOPDocument{
		ID:    "sop-1",
		Title: "Café",
		Steps: []models.SOPStep{{StepNumber: 1, Title: "a" + strings.Repeat("é", 40), ActionType: models.ActionTypeClick}},
	}

	id := identifier(sop.Steps[0].Title)
	assert.True(t, utf8.ValidString(id))
	assert.Equal(t, 30, utf8.RuneCountInString(id))

	code, err := GenerateCode(sop, models.FrameworkAgent)
	require.NoError(t, err)

	for name, content := range code.Files {
		assert.True(t, utf8.ValidString(content), name)
	}

	assert.Contains(t, code.Files["sop_1_agent.py"], "def step_1_"+id+"(self)")
}

func TestGenerateCode_UnsupportedFramework(t *testing.T) {
	_, err := GenerateCode(mustSOP(t), models.Framework("cobol-robot"))
	require.ErrorIs(t, err, ErrUnsupportedFramework)

	_, err = GenerateCode(nil, models.FrameworkAgent)
	require.ErrorIs(t, err, ErrNilArtifact)
}

func TestExecute_AllPass(t *testing.T) {
	sop := mustSOP(t)

	summary, err := Execute(sop, ExecutionOptions{
		Framework:          models.FrameworkAgent,
		SuccessProbability: DefaultSuccessProbability,
		Sampler:            alwaysPass(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, summary.Status)
	assert.Equal(t, 5, summary.PassedSteps)
	assert.Equal(t, 0, summary.FailedSteps)
	assert.Equal(t, len(sop.Steps), summary.TotalSteps)
	assert.Equal(t, 1.0, summary.SuccessRate)
	assert.Equal(t, sop.ID, summary.SOPID)
	assert.Equal(t, models.FrameworkAgent, summary.Framework)

	for i, result := range summary.StepResults {
		assert.Equal(t, sop.Steps[i].StepNumber, result.StepNumber)
		assert.Equal(t, sop.Steps[i].ExpectedOutput, result.Output)
	}
}

func TestExecute_FailurePattern(t *testing.T) {
	sop := mustSOP(t)

	// 0.92 itself is not below p, so the fourth step fails.
	summary, err := Execute(sop, ExecutionOptions{
		SuccessProbability: DefaultSuccessProbability,
		Sampler:            sequence(0.1, 0.5, 0.91, 0.92, 0.2),
	})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusPartial, summary.Status)
	assert.Equal(t, 4, summary.PassedSteps)
	assert.Equal(t, 1, summary.FailedSteps)
	assert.Equal(t, float64(summary.PassedSteps)/float64(summary.TotalSteps), summary.SuccessRate)
	assert.Equal(t, models.StepStatusFailed, summary.StepResults[3].Status)
	assert.Equal(t, FailureOutput, summary.StepResults[3].Output)
}

func TestExecute_SeededSamplerIsReproducible(t *testing.T) {
	sop := mustSOP(t)

	run := func() *models.ExecutionSummary {
		summary, err := Execute(sop, ExecutionOptions{
			SuccessProbability: DefaultSuccessProbability,
			Sampler:            rand.New(rand.NewPCG(42, 1024)),
		})
		require.NoError(t, err)

		return summary
	}

	first, second := run(), run()

	require.Len(t, first.StepResults, len(second.StepResults))
	for i := range first.StepResults {
		assert.Equal(t, first.StepResults[i].Status, second.StepResults[i].Status)
	}

	assert.Equal(t, float64(first.PassedSteps)/float64(first.TotalSteps), first.SuccessRate)
}

func TestExecute_Faults(t *testing.T) {
	_, err := Execute(nil, ExecutionOptions{Sampler: alwaysPass()})
	require.ErrorIs(t, err, ErrNilArtifact)

	_, err = Execute(mustSOP(t), ExecutionOptions{SuccessProbability: 0.9})
	require.ErrorIs(t, err, ErrNilArtifact)

	_, err = Execute(mustSOP(t), ExecutionOptions{SuccessProbability: 1.5, Sampler: alwaysPass()})
	require.ErrorIs(t, err, ErrInvalidProbability)

	_, err = Execute(&models.SOPDocument{ID: "sop-empty"}, ExecutionOptions{Sampler: alwaysPass()})
	require.ErrorIs(t, err, ErrNoSOPSteps)
}

func TestValidate_MatchScoresFollowExecution(t *testing.T) {
	sop := mustSOP(t)

	execution, err := Execute(sop, ExecutionOptions{
		SuccessProbability: DefaultSuccessProbability,
		Sampler:            sequence(0.1, 0.99, 0.1, 0.99, 0.1),
	})
	require.NoError(t, err)

	report, err := Validate(sop, execution, DefaultValidationOptions())
	require.NoError(t, err)

	require.Len(t, report.ValidationSteps, len(sop.Steps))
	assert.Equal(t, execution.TotalSteps, report.TotalSteps)

	for _, step := range report.ValidationSteps {
		result, ok := execution.StepResult(step.StepNumber)
		require.True(t, ok)

		if result.Status == models.StepStatusCompleted {
			assert.Equal(t, 1.0, step.MatchScore)
			assert.Equal(t, models.ValidationStatusPassed, step.Status)
			assert.Equal(t, step.Expected, step.Actual)
		} else {
			assert.Equal(t, 0.16, step.MatchScore)
			assert.Equal(t, models.ValidationStatusFailed, step.Status)
			assert.Equal(t, FailureOutput, step.Actual)
		}

		assert.NotEqual(t, models.ValidationStatusPartial, step.Status)
	}

	assert.Equal(t, 3, report.PassedSteps)
	assert.Equal(t, 2, report.FailedSteps)
	assert.Equal(t, 0.6, report.SuccessRate)
	assert.Equal(t, models.ValidationStatusPartial, report.OverallStatus)
	assert.Equal(t, []string{RecommendationReviewFailed}, report.Recommendations)
}

func TestValidate_OverallStatus(t *testing.T) {
	sop := mustSOP(t)

	tests := []struct {
		name    string
		sampler Sampler
		passed  int
		want    models.ValidationStatus
	}{
		{"5 of 5", alwaysPass(), 5, models.ValidationStatusPassed},
		{"3 of 5", sequence(0, 0, 0, 0.99, 0.99), 3, models.ValidationStatusPartial},
		{"1 of 5", sequence(0, 0.99), 1, models.ValidationStatusFailed},
		{"0 of 5", alwaysFail(), 0, models.ValidationStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execution, err := Execute(sop, ExecutionOptions{
				SuccessProbability: DefaultSuccessProbability,
				Sampler:            tt.sampler,
			})
			require.NoError(t, err)

			report, err := Validate(sop, execution, DefaultValidationOptions())
			require.NoError(t, err)

			assert.Equal(t, tt.passed, report.PassedSteps)
			assert.Equal(t, tt.want, report.OverallStatus)
			assert.NotEmpty(t, report.Recommendations)
		})
	}
}

func TestValidate_AllPassedRecommendation(t *testing.T) {
	sop := mustSOP(t)

	execution, err := Execute(sop, ExecutionOptions{SuccessProbability: DefaultSuccessProbability, Sampler: alwaysPass()})
	require.NoError(t, err)

	report, err := Validate(sop, execution, DefaultValidationOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"All steps passed. Consider adding edge case tests."}, report.Recommendations)
	assert.Equal(t, sop.ID, report.SOPID)
	assert.Equal(t, execution.ExecutionID, report.ExecutionID)
}

func TestValidate_PartialReachableOnlyWithOtherThresholds(t *testing.T) {
	sop := mustSOP(t)

	execution, err := Execute(sop, ExecutionOptions{SuccessProbability: DefaultSuccessProbability, Sampler: alwaysFail()})
	require.NoError(t, err)

	opts := DefaultValidationOptions()
	opts.StepThresholds = scoring.Thresholds{Pass: 0.8, Partial: 0.1}

	report, err := Validate(sop, execution, opts)
	require.NoError(t, err)

	for _, step := range report.ValidationSteps {
		assert.Equal(t, models.ValidationStatusPartial, step.Status)
	}
}

func TestValidate_MissingExecutionResult(t *testing.T) {
	sop := mustSOP(t)

	execution, err := Execute(sop, ExecutionOptions{SuccessProbability: DefaultSuccessProbability, Sampler: alwaysPass()})
	require.NoError(t, err)

	execution.StepResults = execution.StepResults[:3]

	_, err = Validate(sop, execution, DefaultValidationOptions())
	require.ErrorIs(t, err, ErrMissingExecutionResult)

	opts := DefaultValidationOptions()
	opts.Permissive = true

	report, err := Validate(sop, execution, opts)
	require.NoError(t, err)

	missing := report.ValidationSteps[4]
	assert.Equal(t, "No data", missing.Actual)
	assert.Equal(t, 0.0, missing.MatchScore)
	assert.Equal(t, models.ValidationStatusFailed, missing.Status)
	assert.Equal(t, 3, report.PassedSteps)
}

// renumbered returns a copy of sop whose steps carry the given numbers.
func renumbered(sop *models.SOPDocument, numbers ...int) *models.SOPDocument {
	clone := *sop
	clone.Steps = make([]models.SOPStep, len(numbers))

	for i, n := range numbers {
		clone.Steps[i] = sop.Steps[i]
		clone.Steps[i].StepNumber = n
	}

	return &clone
}

func TestExecute_RejectsBadStepNumbering(t *testing.T) {
	sop := mustSOP(t)

	tests := []struct {
		name    string
		numbers []int
	}{
		{"repeated", []int{1, 1}},
		{"gap", []int{1, 3}},
		{"not from one", []int{2, 3}},
		{"out of order", []int{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(renumbered(sop, tt.numbers...), ExecutionOptions{
				SuccessProbability: DefaultSuccessProbability,
				Sampler:            alwaysPass(),
			})
			require.ErrorIs(t, err, ErrInvalidStepNumbering)
		})
	}
}

func TestValidate_RejectsRepeatedStepNumbers(t *testing.T) {
	sop := renumbered(mustSOP(t), 1, 1)

	execution := &models.ExecutionSummary{
		ExecutionID: "exec-dup",
		StepResults: []models.ExecutionStepResult{
			{StepNumber: 1, Status: models.StepStatusCompleted, Output: "A"},
			{StepNumber: 1, Status: models.StepStatusFailed, Output: FailureOutput},
		},
	}

	_, err := Validate(sop, execution, DefaultValidationOptions())
	require.ErrorIs(t, err, ErrInvalidStepNumbering)
}

func TestValidate_RejectsDuplicateExecutionResults(t *testing.T) {
	sop := renumbered(mustSOP(t), 1, 2)

	execution := &models.ExecutionSummary{
		ExecutionID: "exec-dup",
		StepResults: []models.ExecutionStepResult{
			{StepNumber: 1, Status: models.StepStatusCompleted, Output: "A"},
			{StepNumber: 1, Status: models.StepStatusFailed, Output: FailureOutput},
			{StepNumber: 2, Status: models.StepStatusCompleted, Output: "B"},
		},
	}

	_, err := Validate(sop, execution, DefaultValidationOptions())
	require.ErrorIs(t, err, ErrDuplicateStepResult)
}

func TestValidate_InvalidThresholds(t *testing.T) {
	sop := mustSOP(t)

	execution, err := Execute(sop, ExecutionOptions{SuccessProbability: DefaultSuccessProbability, Sampler: alwaysPass()})
	require.NoError(t, err)

	opts := DefaultValidationOptions()
	opts.OverallThresholds = scoring.Thresholds{Pass: 0.5, Partial: 0.9}

	_, err = Validate(sop, execution, opts)
	require.ErrorIs(t, err, scoring.ErrInvalidThresholds)
}

func TestExecute_SeedNineteenPassesEveryStep(t *testing.T) {
	summary, err := Execute(mustSOP(t), ExecutionOptions{
		SuccessProbability: DefaultSuccessProbability,
		Sampler:            NewSampler(19),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.PassedSteps)
	assert.Equal(t, 1.0, summary.SuccessRate)
}

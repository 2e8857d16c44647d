package services

import (
	"strings"
	"testing"
	"time"

	"github.com/observe2agent/observe2agent/pkg/generators"
	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway() *Gateway {
	return NewGateway(pipeline.DefaultConfig(), quietLogger())
}

func TestGateway_UploadVideo(t *testing.T) {
	gateway := newTestGateway()

	result, err := gateway.UploadVideo("po.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.VideoID, "video-"))
	assert.Equal(t, "po.mp4", result.Filename)
	assert.Equal(t, UploadStatusUploaded, result.Status)

	_, err = gateway.UploadVideo("")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestGateway_StageChain(t *testing.T) {
	gateway := newTestGateway()

	sop, err := gateway.GenerateSOP("video-00000001")
	require.NoError(t, err)
	assert.Equal(t, "video-00000001", sop.VideoSourceID)

	seed := uint64(19)

	execution, err := gateway.RunExecution(sop, models.FrameworkLegacyWebDriver, &seed)
	require.NoError(t, err)
	assert.Equal(t, 1.0, execution.SuccessRate)
	assert.Equal(t, models.FrameworkLegacyWebDriver, execution.Framework)

	report, err := gateway.Validate(sop, execution)
	require.NoError(t, err)
	assert.Equal(t, models.ValidationStatusPassed, report.OverallStatus)

	code, err := gateway.GenerateCode(sop, models.FrameworkModernAsyncDriver)
	require.NoError(t, err)
	assert.Len(t, code.Files, 1)
}

func TestGateway_RunExecutionDefaultsFramework(t *testing.T) {
	gateway := newTestGateway()

	sop, err := gateway.GenerateSOP("video-00000001")
	require.NoError(t, err)

	execution, err := gateway.RunExecution(sop, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.FrameworkAgent, execution.Framework)
	assert.Equal(t, len(sop.Steps), execution.TotalSteps)
}

func TestGateway_Errors(t *testing.T) {
	gateway := newTestGateway()

	_, err := gateway.GenerateSOP("")
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = gateway.RunExecution(&models.SOPDocument{ID: "sop-1"}, "robot", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFramework)

	_, err = gateway.RunExecution(&models.SOPDocument{ID: "sop-1"}, models.FrameworkAgent, nil)
	assert.ErrorIs(t, err, ErrInvalidArtifact)

	sop, err := gateway.GenerateSOP("video-00000001")
	require.NoError(t, err)

	_, err = gateway.Validate(sop, &models.ExecutionSummary{ExecutionID: "exec-1"})
	assert.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = gateway.GenerateCode(sop, "robot")
	assert.ErrorIs(t, err, ErrUnsupportedFramework)
}

func TestGateway_ValidateRejectsRepeatedStepNumbers(t *testing.T) {
	gateway := newTestGateway()

	sop := &models.SOPDocument{
		ID: "sop-dup",
		Steps: []models.SOPStep{
			{StepNumber: 1, Title: "a", ExpectedOutput: "A"},
			{StepNumber: 1, Title: "b", ExpectedOutput: "B"},
		},
	}
	execution := &models.ExecutionSummary{
		ExecutionID: "exec-dup",
		StepResults: []models.ExecutionStepResult{
			{StepNumber: 1, Status: models.StepStatusCompleted, Output: "A"},
			{StepNumber: 1, Status: models.StepStatusFailed, Output: "Element not found"},
		},
	}

	report, err := gateway.Validate(sop, execution)
	assert.Nil(t, report)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, ErrInvalidArtifact)
	assert.ErrorIs(t, err, generators.ErrInvalidStepNumbering)
}

func TestGateway_GenerateSOPUsesClock(t *testing.T) {
	gateway := newTestGateway()
	gateway.clock = func() time.Time { return time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC) }

	sop, err := gateway.GenerateSOP("video-00000001")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC), sop.CreatedAt)
}

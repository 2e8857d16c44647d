package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/pipeline"
	"github.com/observe2agent/observe2agent/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()

	require.NoError(t, p.Validate())
	assert.Equal(t, pipeline.DefaultConfig(), p.PipelineConfig())
	assert.Equal(t, models.FrameworkAgent, p.Simulation.DefaultFramework)
	assert.Empty(t, p.EngineOptions())
}

func TestParse_FullProfile(t *testing.T) {
	p, err := Parse([]byte(`
simulation:
  success_probability: 0.5
  stage_delay: 10ms
  seed: 42
  default_framework: modern-async-driver
  permissive_validation: true
scoring:
  step:
    pass: 0.9
    partial: 0.2
  overall:
    pass: 0.75
    partial: 0.25
`))
	require.NoError(t, err)

	cfg := p.PipelineConfig()
	assert.Equal(t, 0.5, cfg.SuccessProbability)
	assert.Equal(t, 10*time.Millisecond, cfg.StageDelay)
	assert.True(t, cfg.PermissiveValidation)
	assert.Equal(t, scoring.Thresholds{Pass: 0.9, Partial: 0.2}, cfg.StepThresholds)
	assert.Equal(t, scoring.Thresholds{Pass: 0.75, Partial: 0.25}, cfg.OverallThresholds)
	assert.Equal(t, models.FrameworkModernAsyncDriver, p.Simulation.DefaultFramework)
	assert.Len(t, p.EngineOptions(), 1)
}

func TestParse_ZeroProbabilityIsKept(t *testing.T) {
	p, err := Parse([]byte("simulation:\n  success_probability: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.PipelineConfig().SuccessProbability)
	assert.Equal(t, pipeline.DefaultStageDelay, p.PipelineConfig().StageDelay)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"probability above one", "simulation:\n  success_probability: 1.5\n"},
		{"negative delay", "simulation:\n  stage_delay: -1s\n"},
		{"unknown framework", "simulation:\n  default_framework: robot\n"},
		{"thresholds out of order", "scoring:\n  step:\n    pass: 0.3\n    partial: 0.6\n"},
		{"pass threshold not a number", "scoring:\n  step:\n    pass: .nan\n    partial: 0.5\n"},
		{"partial threshold not a number", "scoring:\n  overall:\n    pass: 0.9\n    partial: .nan\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("simulation: [unclosed"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidProfile)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  seed: 7\n"), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, p.Simulation.Seed)
	assert.Equal(t, uint64(7), *p.Simulation.Seed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

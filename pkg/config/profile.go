// Package config loads the simulator profile: the knobs that shape a
// pipeline run without changing its stages.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/pipeline"
	"github.com/observe2agent/observe2agent/pkg/scoring"
	"gopkg.in/yaml.v3"
)

var ErrInvalidProfile = errors.New("invalid simulator profile")

// Profile is the YAML simulator profile.
type Profile struct {
	Simulation struct {
		// SuccessProbability is a pointer so an explicit 0 survives defaulting.
		SuccessProbability   *float64         `yaml:"success_probability"   validate:"omitempty,gte=0,lte=1"`
		StageDelay           *time.Duration   `yaml:"stage_delay"           validate:"omitempty,gte=0"`
		Seed                 *uint64          `yaml:"seed"`
		DefaultFramework     models.Framework `yaml:"default_framework"     validate:"omitempty,oneof=agent-framework legacy-webdriver modern-async-driver"`
		PermissiveValidation bool             `yaml:"permissive_validation"`
	} `yaml:"simulation"`

	Scoring struct {
		Step    *scoring.Thresholds `yaml:"step"`
		Overall *scoring.Thresholds `yaml:"overall"`
	} `yaml:"scoring"`
}

// Default returns the profile every unset field falls back to.
func Default() *Profile {
	p := &Profile{}
	p.applyDefaults()

	return p
}

// Load reads a YAML profile from path, applies defaults and validates it.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML profile: %w", err)
	}

	p.applyDefaults()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (p *Profile) applyDefaults() {
	defaults := pipeline.DefaultConfig()

	if p.Simulation.SuccessProbability == nil {
		probability := defaults.SuccessProbability
		p.Simulation.SuccessProbability = &probability
	}

	if p.Simulation.StageDelay == nil {
		delay := defaults.StageDelay
		p.Simulation.StageDelay = &delay
	}

	if p.Simulation.DefaultFramework == "" {
		p.Simulation.DefaultFramework = models.FrameworkAgent
	}

	if p.Scoring.Step == nil {
		step := defaults.StepThresholds
		p.Scoring.Step = &step
	}

	if p.Scoring.Overall == nil {
		overall := defaults.OverallThresholds
		p.Scoring.Overall = &overall
	}
}

// Validate checks field ranges and that the resulting pipeline config is usable.
func (p *Profile) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	if err := p.PipelineConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	return nil
}

// PipelineConfig converts the profile to the engine's config. Call it on a
// profile returned by Load, Parse or Default.
func (p *Profile) PipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()

	if p.Simulation.SuccessProbability != nil {
		cfg.SuccessProbability = *p.Simulation.SuccessProbability
	}

	if p.Simulation.StageDelay != nil {
		cfg.StageDelay = *p.Simulation.StageDelay
	}

	if p.Scoring.Step != nil {
		cfg.StepThresholds = *p.Scoring.Step
	}

	if p.Scoring.Overall != nil {
		cfg.OverallThresholds = *p.Scoring.Overall
	}

	cfg.PermissiveValidation = p.Simulation.PermissiveValidation

	return cfg
}

// EngineOptions returns the engine options the profile implies beyond Config.
func (p *Profile) EngineOptions() []pipeline.Option {
	if p.Simulation.Seed == nil {
		return nil
	}

	return []pipeline.Option{pipeline.WithSeed(*p.Simulation.Seed)}
}

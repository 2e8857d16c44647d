package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/observe2agent/observe2agent/pkg/generators"
	"github.com/observe2agent/observe2agent/pkg/scoring"
)

// DefaultStageDelay is the simulated I/O wait spent in each stage.
const DefaultStageDelay = 300 * time.Millisecond

var ErrInvalidStageDelay = errors.New("stage delay must not be negative")

type Config struct {
	SuccessProbability   float64
	StepThresholds       scoring.Thresholds
	OverallThresholds    scoring.Thresholds
	StageDelay           time.Duration
	PermissiveValidation bool
}

func DefaultConfig() Config {
	return Config{
		SuccessProbability: generators.DefaultSuccessProbability,
		StepThresholds:     scoring.StepThresholds,
		OverallThresholds:  scoring.OverallThresholds,
		StageDelay:         DefaultStageDelay,
	}
}

func (c Config) Validate() error {
	if c.SuccessProbability < 0 || c.SuccessProbability > 1 {
		return fmt.Errorf("%w: %v", generators.ErrInvalidProbability, c.SuccessProbability)
	}

	if err := c.StepThresholds.Validate(); err != nil {
		return fmt.Errorf("step thresholds: %w", err)
	}

	if err := c.OverallThresholds.Validate(); err != nil {
		return fmt.Errorf("overall thresholds: %w", err)
	}

	if c.StageDelay < 0 {
		return ErrInvalidStageDelay
	}

	return nil
}

func (c Config) validationOptions() generators.ValidationOptions {
	return generators.ValidationOptions{
		StepThresholds:    c.StepThresholds,
		OverallThresholds: c.OverallThresholds,
		Permissive:        c.PermissiveValidation,
	}
}

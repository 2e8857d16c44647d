// Package generators synthesizes the artifact each pipeline stage produces.
//
// Every generator is a pure function of its declared input; none reads state
// belonging to another stage. Malformed input is reported as an error, which
// the pipeline treats as a generator fault.
package generators

import "errors"

var (
	ErrEmptyVideoName         = errors.New("video name is required")
	ErrEmptyVideoID           = errors.New("video ID is required")
	ErrNilArtifact            = errors.New("input artifact is nil")
	ErrNoWorkflowSteps        = errors.New("analysis contains no workflow steps")
	ErrNoSOPSteps             = errors.New("SOP contains no steps")
	ErrInvalidStepNumbering   = errors.New("step numbers must be contiguous from 1")
	ErrUnsupportedFramework   = errors.New("unsupported framework")
	ErrInvalidProbability     = errors.New("success probability must lie within [0, 1]")
	ErrMissingExecutionResult = errors.New("no execution result for SOP step")
	ErrDuplicateStepResult    = errors.New("execution reports a step more than once")
)

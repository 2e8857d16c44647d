// Package models defines the pipeline run aggregate and the artifacts its stages produce.
package models

import (
	"encoding/json"
	"time"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status ends a run.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// PipelineRun is the aggregate root of one pipeline invocation.
//
// Values are treated as immutable snapshots: the With* helpers return an
// updated copy and leave the receiver untouched, so a snapshot handed to a
// reader never changes underneath it.
type PipelineRun struct {
	ID         string                  `json:"id"`
	Stage      Stage                   `json:"stage"`
	Status     RunStatus               `json:"status"`
	VideoName  string                  `json:"video_name"`
	Framework  Framework               `json:"framework"`
	VideoID    string                  `json:"video_id,omitempty"`
	Analysis   *AnalysisResult         `json:"analysis,omitempty"`
	Systems    *SystemsDetectionResult `json:"systems,omitempty"`
	SOP        *SOPDocument            `json:"sop,omitempty"`
	Execution  *ExecutionSummary       `json:"execution,omitempty"`
	Validation *ValidationReport       `json:"validation,omitempty"`
	Error      string                  `json:"error,omitempty"`
	StartedAt  *time.Time              `json:"started_at,omitempty"`
	FinishedAt *time.Time              `json:"finished_at,omitempty"`
}

// NewIdleRun returns the empty run a fresh session starts from.
func NewIdleRun() PipelineRun {
	return PipelineRun{Stage: StageIdle, Status: RunStatusIdle}
}

// WithStage advances the run to stage. Stages never move backwards; a lower
// value is ignored.
func (r PipelineRun) WithStage(stage Stage) PipelineRun {
	if stage > r.Stage {
		r.Stage = stage
	}

	return r
}

func (r PipelineRun) WithStatus(status RunStatus) PipelineRun {
	r.Status = status

	return r
}

func (r PipelineRun) WithVideoID(videoID string) PipelineRun {
	if r.VideoID == "" {
		r.VideoID = videoID
	}

	return r
}

func (r PipelineRun) WithAnalysis(analysis *AnalysisResult) PipelineRun {
	if r.Analysis == nil {
		r.Analysis = analysis
	}

	return r
}

func (r PipelineRun) WithSystems(systems *SystemsDetectionResult) PipelineRun {
	if r.Systems == nil {
		r.Systems = systems
	}

	return r
}

func (r PipelineRun) WithSOP(sop *SOPDocument) PipelineRun {
	if r.SOP == nil {
		r.SOP = sop
	}

	return r
}

func (r PipelineRun) WithExecution(execution *ExecutionSummary) PipelineRun {
	if r.Execution == nil {
		r.Execution = execution
	}

	return r
}

func (r PipelineRun) WithValidation(validation *ValidationReport) PipelineRun {
	if r.Validation == nil {
		r.Validation = validation
	}

	return r
}

// WithFailure marks the run failed. The stage is left where it was.
func (r PipelineRun) WithFailure(err error, at time.Time) PipelineRun {
	r.Status = RunStatusFailed
	if err != nil {
		r.Error = err.Error()
	}

	r.FinishedAt = &at

	return r
}

func (r PipelineRun) WithCompletion(at time.Time) PipelineRun {
	r.Status = RunStatusCompleted
	r.FinishedAt = &at

	return r
}

// Clone returns a deep copy so artifacts can be handed to readers safely.
func (r PipelineRun) Clone() PipelineRun {
	data, err := json.Marshal(r)
	if err != nil {
		return r
	}

	var clone PipelineRun
	if err := json.Unmarshal(data, &clone); err != nil {
		return r
	}

	return clone
}

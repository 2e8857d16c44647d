// Package web provides HTTP request and response types for the pipeline API.
package web

import (
	"encoding/json"

	"github.com/observe2agent/observe2agent/pkg/models"
)

// UploadVideoRequest is the JSON form of an upload; multipart uploads send a
// "file" part instead.
type UploadVideoRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
}

type GenerateSOPRequest struct {
	VideoID string `json:"video_id" validate:"required"`
}

// Artifacts travel as raw JSON so they can be checked against their schema
// before decoding.

type RunExecutionRequest struct {
	SOP       json.RawMessage  `json:"sop"       validate:"required"`
	Framework models.Framework `json:"framework" validate:"omitempty,oneof=agent-framework legacy-webdriver modern-async-driver"`
	Seed      *uint64          `json:"seed,omitempty"`
}

type ValidateRequest struct {
	SOP       json.RawMessage `json:"sop"       validate:"required"`
	Execution json.RawMessage `json:"execution" validate:"required"`
}

type GenerateCodeRequest struct {
	SOP       json.RawMessage  `json:"sop"       validate:"required"`
	Framework models.Framework `json:"framework" validate:"required,oneof=agent-framework legacy-webdriver modern-async-driver"`
}

// LogsResponse carries log entries after a sequence number; Next is the
// cursor to poll with.
type LogsResponse struct {
	RunID   string            `json:"run_id"`
	Entries []models.LogEntry `json:"entries"`
	Next    int               `json:"next"`
}

type RunsResponse struct {
	Runs       []models.PipelineRun `json:"runs"`
	TotalCount int                  `json:"total_count"`
}

func newLogsResponse(runID string, since int, entries []models.LogEntry) LogsResponse {
	next := since
	if len(entries) > 0 {
		next = entries[len(entries)-1].Seq
	}

	if entries == nil {
		entries = []models.LogEntry{}
	}

	return LogsResponse{RunID: runID, Entries: entries, Next: next}
}

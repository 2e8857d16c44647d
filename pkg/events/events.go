// Package events defines the notifications a pipeline run publishes while it progresses.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/observe2agent/observe2agent/pkg/models"
)

type EventType string

// Topic carries every pipeline event.
const Topic = "o2a.pipeline.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent     EventType = "pipeline.run.started"
	RunCompletedEvent   EventType = "pipeline.run.completed"
	RunFailedEvent      EventType = "pipeline.run.failed"
	StageStartedEvent   EventType = "pipeline.stage.started"
	StageCompletedEvent EventType = "pipeline.stage.completed"
	LogAppendedEvent    EventType = "pipeline.log.appended"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type RunStarted struct {
	BaseEvent

	VideoName string           `json:"video_name"`
	Framework models.Framework `json:"framework"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunCompleted struct {
	BaseEvent

	OverallStatus models.ValidationStatus `json:"overall_status"`
	SuccessRate   float64                 `json:"success_rate"`
	DurationMs    int64                   `json:"duration_ms"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	Stage      models.Stage `json:"stage"`
	StageName  string       `json:"stage_name"`
	Error      string       `json:"error"`
	DurationMs int64        `json:"duration_ms"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type StageStarted struct {
	BaseEvent

	Stage     models.Stage `json:"stage"`
	StageName string       `json:"stage_name"`
}

func (e StageStarted) GetType() EventType {
	return StageStartedEvent
}

type StageCompleted struct {
	BaseEvent

	Stage     models.Stage `json:"stage"`
	StageName string       `json:"stage_name"`
}

func (e StageCompleted) GetType() EventType {
	return StageCompletedEvent
}

type LogAppended struct {
	BaseEvent

	Entry models.LogEntry `json:"entry"`
}

func (e LogAppended) GetType() EventType {
	return LogAppendedEvent
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Metadata:  make(map[string]any),
	}
}

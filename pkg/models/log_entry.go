package models

import "time"

// LogEntry is one line of a run's log stream.
type LogEntry struct {
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Package logstream holds the ordered, append-only log of a pipeline run.
package logstream

import (
	"sync"
	"time"

	"github.com/observe2agent/observe2agent/pkg/models"
)

// Clock returns the current time. Tests substitute a fixed sequence.
type Clock func() time.Time

// Stream is safe for one appender and any number of concurrent readers.
// Entries are never removed or rewritten.
type Stream struct {
	mu      sync.RWMutex
	clock   Clock
	entries []models.LogEntry
}

func New(clock Clock) *Stream {
	if clock == nil {
		clock = time.Now
	}

	return &Stream{clock: clock}
}

// Append stamps message with the next sequence number and the clock's time.
// Timestamps never go backwards even when the clock does.
func (s *Stream) Append(message string) models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.LogEntry{
		Seq:       len(s.entries) + 1,
		Timestamp: s.clock().UTC(),
		Message:   message,
	}

	if n := len(s.entries); n > 0 && entry.Timestamp.Before(s.entries[n-1].Timestamp) {
		entry.Timestamp = s.entries[n-1].Timestamp
	}

	s.entries = append(s.entries, entry)

	return entry
}

// Entries returns a copy of every entry in append order.
func (s *Stream) Entries() []models.LogEntry {
	return s.Since(0)
}

// Since returns a copy of the entries whose sequence number is greater than seq.
func (s *Stream) Since(seq int) []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if seq < 0 {
		seq = 0
	}

	if seq >= len(s.entries) {
		return []models.LogEntry{}
	}

	out := make([]models.LogEntry, len(s.entries)-seq)
	copy(out, s.entries[seq:])

	return out
}

func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

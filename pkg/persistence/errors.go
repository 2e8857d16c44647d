package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/observe2agent/observe2agent/pkg/models"
)

var (
	// ErrRunNotFound indicates no run is stored under the given ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidRunID indicates an ID that is empty or unsafe to use as a storage key.
	ErrInvalidRunID = errors.New("invalid run ID")
)

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateRunID rejects IDs that could escape a key namespace or directory.
func ValidateRunID(id string) error {
	if !runIDPattern.MatchString(id) {
		return NewRunError("ValidateRunID", id, ErrInvalidRunID)
	}

	return nil
}

// RunError wraps run-related errors with additional context.
type RunError struct {
	Op    string
	RunID string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewRunError(op, runID string, err error) *RunError {
	return &RunError{Op: op, RunID: runID, Err: err}
}

// IsRunNotFound checks if an error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// SortRuns orders runs most recently started first, breaking ties by ID.
func SortRuns(runs []models.PipelineRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i].StartedAt, runs[j].StartedAt

		switch {
		case a == nil && b == nil:
			return runs[i].ID < runs[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		default:
			return runs[i].ID < runs[j].ID
		}
	})
}

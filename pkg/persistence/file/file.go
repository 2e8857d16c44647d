// Package file provides file-based persistence for pipeline runs.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/persistence"
)

const (
	runsDir = "runs"
	logsDir = "logs"
)

// Persistence implements the persistence.Persistence interface using the file system.
// Each run is one JSON document under runs/ and its log stream one under logs/.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) SaveRun(_ context.Context, run models.PipelineRun) error {
	if err := persistence.ValidateRunID(run.ID); err != nil {
		return err
	}

	return fp.write(runsDir, run.ID, run)
}

func (fp *Persistence) RunByID(_ context.Context, id string) (*models.PipelineRun, error) {
	if err := persistence.ValidateRunID(id); err != nil {
		return nil, err
	}

	var run models.PipelineRun
	if err := fp.read(runsDir, id, &run); err != nil {
		return nil, persistence.NewRunError("RunByID", id, err)
	}

	return &run, nil
}

func (fp *Persistence) Runs(ctx context.Context) ([]models.PipelineRun, error) {
	files, err := fs.Glob(os.DirFS(filepath.Join(fp.root, runsDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	runs := make([]models.PipelineRun, 0, len(files))

	for _, file := range files {
		run, err := fp.RunByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", file, err)
		}

		runs = append(runs, *run)
	}

	persistence.SortRuns(runs)

	return runs, nil
}

func (fp *Persistence) SaveLogs(_ context.Context, runID string, entries []models.LogEntry) error {
	if err := persistence.ValidateRunID(runID); err != nil {
		return err
	}

	if entries == nil {
		entries = []models.LogEntry{}
	}

	return fp.write(logsDir, runID, entries)
}

func (fp *Persistence) LogsByRunID(_ context.Context, runID string) ([]models.LogEntry, error) {
	if err := persistence.ValidateRunID(runID); err != nil {
		return nil, err
	}

	entries := []models.LogEntry{}
	if err := fp.read(logsDir, runID, &entries); err != nil {
		return nil, persistence.NewRunError("LogsByRunID", runID, err)
	}

	return entries, nil
}

func (fp *Persistence) write(dir, id string, value any) error {
	err := os.MkdirAll(filepath.Join(fp.root, dir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", dir, id, err)
	}

	// Write then rename so readers never observe a partial document.
	target := filepath.Join(fp.root, dir, id+".json")
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", dir, id, err)
	}

	return os.Rename(tmp, target)
}

func (fp *Persistence) read(dir, id string, value any) error {
	body, err := os.ReadFile(filepath.Join(fp.root, dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrRunNotFound
		}

		return fmt.Errorf("failed to fetch %s %s: %w", dir, id, err)
	}

	if err := json.Unmarshal(body, value); err != nil {
		return fmt.Errorf("failed to unmarshal %s %s: %w", dir, id, err)
	}

	return nil
}

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/observe2agent/observe2agent/pkg/generators"
	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...pipeline.Option) *pipeline.Engine {
	t.Helper()

	base := []pipeline.Option{
		pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		pipeline.WithSeed(19),
		pipeline.WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	}

	engine, err := pipeline.NewEngine(pipeline.DefaultConfig(), append(base, opts...)...)
	require.NoError(t, err)

	return engine
}

func TestRunPipeline_StreamsLogAndSummary(t *testing.T) {
	var out bytes.Buffer

	run, err := runPipeline(t.Context(), &out, newTestEngine(t), "po.mp4", models.FrameworkAgent)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)

	output := out.String()
	assert.Contains(t, output, "Starting pipeline for po.mp4 (agent-framework)")
	assert.Contains(t, output, "[8/8] Validation: completed")
	assert.Contains(t, output, "Execution:  5/5 steps passed (100.0%)")
	assert.Contains(t, output, "Validation: passed")
	assert.Less(t, strings.Index(output, "[1/8]"), strings.Index(output, "[8/8]"))
}

func TestRunPipeline_FailedRunIsAnError(t *testing.T) {
	var out bytes.Buffer

	engine := newTestEngine(t, pipeline.WithGenerators(pipeline.Generators{
		Execute: func(*models.SOPDocument, generators.ExecutionOptions) (*models.ExecutionSummary, error) {
			return nil, assert.AnError
		},
	}))

	run, err := runPipeline(t.Context(), &out, engine, "po.mp4", models.FrameworkAgent)
	require.ErrorIs(t, err, errRunFailed)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Contains(t, out.String(), "Pipeline failed at stage 7 (Execution)")
}

func TestRunPipeline_RejectsBadInput(t *testing.T) {
	var out bytes.Buffer

	_, err := runPipeline(t.Context(), &out, newTestEngine(t), "", models.FrameworkAgent)
	require.ErrorIs(t, err, pipeline.ErrEmptyVideoName)
	assert.Empty(t, out.String())
}

func TestWriteCode(t *testing.T) {
	code, err := generateCode("po.mp4", models.FrameworkAgent)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")

	written, err := writeCode(dir, code)
	require.NoError(t, err)
	assert.Len(t, written, len(code.Files))

	for _, path := range written {
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		assert.Equal(t, code.Files[filepath.Base(path)], string(data))
	}
}

func TestGenerateCode_UnsupportedFramework(t *testing.T) {
	_, err := generateCode("po.mp4", "robot")
	assert.Error(t, err)
}

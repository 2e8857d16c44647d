package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/observe2agent/observe2agent/pkg/generators"
	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/pipeline"
)

const UploadStatusUploaded = "uploaded"

// UploadResult mirrors the upload endpoint's response.
type UploadResult struct {
	VideoID  string `json:"video_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// Gateway serves the individual stage endpoints without touching the
// engine's run slot. Every call is independent.
type Gateway struct {
	cfg    pipeline.Config
	logger *slog.Logger
	clock  func() time.Time
}

func NewGateway(cfg pipeline.Config, logger *slog.Logger) *Gateway {
	return &Gateway{cfg: cfg, logger: logger.With("module", "gateway"), clock: time.Now}
}

func (g *Gateway) UploadVideo(filename string) (*UploadResult, error) {
	videoID, err := generators.Upload(filename)
	if err != nil {
		return nil, g.invalid("UploadVideo", err)
	}

	g.logger.Info("video uploaded", "video_id", videoID, "filename", filename)

	return &UploadResult{VideoID: videoID, Filename: filename, Status: UploadStatusUploaded}, nil
}

// GenerateSOP analyses the video and derives its SOP.
func (g *Gateway) GenerateSOP(videoID string) (*models.SOPDocument, error) {
	analysis, err := generators.Analyze(videoID)
	if err != nil {
		return nil, g.invalid("GenerateSOP", err)
	}

	sop, err := generators.GenerateSOP(analysis, g.clock())
	if err != nil {
		return nil, g.invalid("GenerateSOP", err)
	}

	return sop, nil
}

// RunExecution simulates executing sop. A nil seed draws a fresh random source.
func (g *Gateway) RunExecution(sop *models.SOPDocument, framework models.Framework, seed *uint64) (*models.ExecutionSummary, error) {
	if framework == "" {
		framework = models.FrameworkAgent
	}

	if !framework.Valid() {
		return nil, NewValidationError("RunExecution", "unsupported_framework",
			fmt.Sprintf("unsupported framework %q", framework), ErrUnsupportedFramework)
	}

	s := rand.Uint64()
	if seed != nil {
		s = *seed
	}

	summary, err := generators.Execute(sop, generators.ExecutionOptions{
		Framework:          framework,
		SuccessProbability: g.cfg.SuccessProbability,
		Sampler:            generators.NewSampler(s),
	})
	if err != nil {
		return nil, g.invalid("RunExecution", err)
	}

	return summary, nil
}

func (g *Gateway) Validate(sop *models.SOPDocument, execution *models.ExecutionSummary) (*models.ValidationReport, error) {
	report, err := generators.Validate(sop, execution, generators.ValidationOptions{
		StepThresholds:    g.cfg.StepThresholds,
		OverallThresholds: g.cfg.OverallThresholds,
		Permissive:        g.cfg.PermissiveValidation,
	})
	if err != nil {
		return nil, g.invalid("Validate", err)
	}

	return report, nil
}

func (g *Gateway) GenerateCode(sop *models.SOPDocument, framework models.Framework) (*models.GeneratedCode, error) {
	code, err := generators.GenerateCode(sop, framework)
	if err != nil {
		if errors.Is(err, generators.ErrUnsupportedFramework) {
			return nil, NewValidationError("GenerateCode", "unsupported_framework", err.Error(), ErrUnsupportedFramework)
		}

		return nil, g.invalid("GenerateCode", err)
	}

	return code, nil
}

// invalid reports generator input faults as client errors.
func (g *Gateway) invalid(op string, err error) error {
	return NewValidationError(op, "invalid_artifact", err.Error(), fmt.Errorf("%w: %w", ErrInvalidArtifact, err))
}

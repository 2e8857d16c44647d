package pipeline

import (
	"fmt"

	"github.com/observe2agent/observe2agent/pkg/generators"
	"github.com/observe2agent/observe2agent/pkg/models"
)

// work performs the unit of work for stage and returns the updated run with
// a one-line summary of what was produced. Each stage reads only the
// artifacts it declares as input.
func (e *Engine) work(stage models.Stage, run models.PipelineRun) (models.PipelineRun, string, error) {
	switch stage {
	case models.StageUpload:
		return e.upload(run)
	case models.StageAnalysis:
		return e.analyze(run)
	case models.StageDetection:
		return e.detect(run)
	case models.StageSOPGeneration:
		return e.generateSOP(run)
	case models.StageECMMapping:
		return e.mapECM(run)
	case models.StageCodeGeneration:
		return e.generateCode(run)
	case models.StageExecution:
		return e.execute(run)
	case models.StageValidation:
		return e.validate(run)
	default:
		return run, "", fmt.Errorf("unknown stage %d", stage)
	}
}

func (e *Engine) upload(run models.PipelineRun) (models.PipelineRun, string, error) {
	videoID, err := e.gen.Upload(run.VideoName)
	if err != nil {
		return run, "", err
	}

	return run.WithVideoID(videoID), fmt.Sprintf("%s stored as %s", run.VideoName, videoID), nil
}

func (e *Engine) analyze(run models.PipelineRun) (models.PipelineRun, string, error) {
	analysis, err := e.gen.Analyze(run.VideoID)
	if err != nil {
		return run, "", err
	}

	return run.WithAnalysis(analysis), fmt.Sprintf("%d workflow steps, %d systems, %d extraction patterns",
		len(analysis.WorkflowSteps), len(analysis.SystemsDetected), len(analysis.DataExtractionPatterns)), nil
}

func (e *Engine) detect(run models.PipelineRun) (models.PipelineRun, string, error) {
	systems, err := e.gen.DetectSystems(run.Analysis)
	if err != nil {
		return run, "", err
	}

	return run.WithSystems(systems), fmt.Sprintf("%d systems found (mean confidence %.2f)",
		systems.TotalSystemsFound, systems.AnalysisConfidence), nil
}

func (e *Engine) generateSOP(run models.PipelineRun) (models.PipelineRun, string, error) {
	sop, err := e.gen.GenerateSOP(run.Analysis, e.clock())
	if err != nil {
		return run, "", err
	}

	return run.WithSOP(sop), fmt.Sprintf("%s with %d steps across %d systems",
		sop.ID, len(sop.Steps), len(sop.SystemsInvolved)), nil
}

// mapECM and generateCode produce log output only; their artifacts are not
// part of the run.
func (e *Engine) mapECM(run models.PipelineRun) (models.PipelineRun, string, error) {
	mapping, err := e.gen.MapECM(run.SOP, run.Systems)
	if err != nil {
		return run, "", err
	}

	return run, fmt.Sprintf("%d/%d steps automatable (%.0f%% coverage), %d integrations",
		mapping.TotalAutomatableSteps, len(mapping.ProcessSystemMapping),
		mapping.AutomationCoverage*100, len(mapping.IntegrationConfig)), nil
}

func (e *Engine) generateCode(run models.PipelineRun) (models.PipelineRun, string, error) {
	code, err := e.gen.GenerateCode(run.SOP, run.Framework)
	if err != nil {
		return run, "", err
	}

	return run, fmt.Sprintf("%d files, %d lines for %s (entry point %s)",
		len(code.Files), code.TotalLines, code.Framework, code.EntryPoint), nil
}

func (e *Engine) execute(run models.PipelineRun) (models.PipelineRun, string, error) {
	execution, err := e.gen.Execute(run.SOP, generators.ExecutionOptions{
		Framework:          run.Framework,
		SuccessProbability: e.cfg.SuccessProbability,
		Sampler:            e.sampler,
	})
	if err != nil {
		return run, "", err
	}

	return run.WithExecution(execution), fmt.Sprintf("%s %d/%d steps passed (success rate %.1f%%)",
		execution.ExecutionID, execution.PassedSteps, execution.TotalSteps, execution.SuccessRate*100), nil
}

func (e *Engine) validate(run models.PipelineRun) (models.PipelineRun, string, error) {
	report, err := e.gen.Validate(run.SOP, run.Execution, e.cfg.validationOptions())
	if err != nil {
		return run, "", err
	}

	return run.WithValidation(report), fmt.Sprintf("%s, %d/%d steps passed (%.1f%%)",
		report.OverallStatus, report.PassedSteps, report.TotalSteps, report.SuccessRate*100), nil
}

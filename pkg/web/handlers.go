// Package web provides HTTP handlers and REST API endpoints for the pipeline simulator.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/schema"
	"github.com/observe2agent/observe2agent/pkg/services"
)

type APIHandlers struct {
	pipelineService *services.Pipeline
	gateway         *services.Gateway
	validator       *validator.Validate
}

func NewAPIHandlers(
	pipelineService *services.Pipeline,
	gateway *services.Gateway,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		pipelineService: pipelineService,
		gateway:         gateway,
		validator:       validator,
	}
}

// Routes mounts the pipeline API on r.
func (h *APIHandlers) Routes(r fiber.Router) {
	api := r.Group("/api")

	api.Post("/videos/upload", h.UploadVideo)
	api.Post("/sops/generate", h.GenerateSOP)
	api.Post("/executions/run", h.RunExecution)
	api.Post("/validation/validate", h.Validate)
	api.Post("/codegen", h.GenerateCode)

	p := api.Group("/pipeline")
	p.Post("/runs", h.StartRun)
	p.Get("/runs", h.ListRuns)
	p.Get("/runs/:id", h.GetRun)
	p.Get("/runs/:id/logs", h.GetRunLogs)
	p.Get("/current", h.GetCurrent)
	p.Get("/current/logs", h.GetCurrentLogs)

	r.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.pipelineService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "observe2agent API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "observe2agent API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"pipeline":   string(h.pipelineService.Current().Status),
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) UploadVideo(c fiber.Ctx) error {
	var req UploadVideoRequest

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return badRequest(c, "Multipart upload requires a file part")
		}

		req.Filename = file.Filename
	} else if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.gateway.UploadVideo(req.Filename)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GenerateSOP(c fiber.Ctx) error {
	var req GenerateSOPRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	sop, err := h.gateway.GenerateSOP(req.VideoID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(sop)
}

func (h *APIHandlers) RunExecution(c fiber.Ctx) error {
	var req RunExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var sop models.SOPDocument
	if err := decodeArtifact(schema.KindSOP, req.SOP, &sop); err != nil {
		return handleServiceError(c, err)
	}

	summary, err := h.gateway.RunExecution(&sop, req.Framework, req.Seed)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) Validate(c fiber.Ctx) error {
	var req ValidateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var (
		sop       models.SOPDocument
		execution models.ExecutionSummary
	)

	if err := decodeArtifact(schema.KindSOP, req.SOP, &sop); err != nil {
		return handleServiceError(c, err)
	}

	if err := decodeArtifact(schema.KindExecution, req.Execution, &execution); err != nil {
		return handleServiceError(c, err)
	}

	report, err := h.gateway.Validate(&sop, &execution)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(report)
}

func (h *APIHandlers) GenerateCode(c fiber.Ctx) error {
	var req GenerateCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var sop models.SOPDocument
	if err := decodeArtifact(schema.KindSOP, req.SOP, &sop); err != nil {
		return handleServiceError(c, err)
	}

	code, err := h.gateway.GenerateCode(&sop, req.Framework)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(code)
}

func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	var req services.StartRunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	run, err := h.pipelineService.Start(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Location("/api/pipeline/runs/" + run.ID)

	return c.Status(fiber.StatusAccepted).JSON(run)
}

func (h *APIHandlers) GetCurrent(c fiber.Ctx) error {
	return c.JSON(h.pipelineService.Current())
}

func (h *APIHandlers) GetCurrentLogs(c fiber.Ctx) error {
	since, err := parseSince(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	runID, entries := h.pipelineService.CurrentLogs(since)

	return c.JSON(newLogsResponse(runID, since, entries))
}

func (h *APIHandlers) ListRuns(c fiber.Ctx) error {
	runs, err := h.pipelineService.ListRuns(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	if runs == nil {
		runs = []models.PipelineRun{}
	}

	return c.JSON(RunsResponse{Runs: runs, TotalCount: len(runs)})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.pipelineService.GetRun(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) GetRunLogs(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	since, err := parseSince(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	entries, err := h.pipelineService.RunLogs(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	filtered := make([]models.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Seq > since {
			filtered = append(filtered, entry)
		}
	}

	return c.JSON(newLogsResponse(id, since, filtered))
}

func parseSince(c fiber.Ctx) (int, error) {
	raw := c.Query("since")
	if raw == "" {
		return 0, nil
	}

	since, err := strconv.Atoi(raw)
	if err != nil || since < 0 {
		return 0, fmt.Errorf("invalid since parameter %q", raw)
	}

	return since, nil
}

// decodeArtifact checks raw against the schema of kind before decoding it.
func decodeArtifact(kind schema.Kind, raw json.RawMessage, target any) error {
	if err := schema.ValidateJSON(kind, raw); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %s: %w", schema.ErrInvalidDocument, kind, err)
	}

	return nil
}

package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/askvideo/api/internal/client"
	"github.com/askvideo/api/internal/model"
	"github.com/askvideo/api/internal/service"
	"github.com/askvideo/api/internal/store"
	"github.com/askvideo/api/pkg/response"
)

type AnalyzeHandler struct {
	service   *service.AnalyzeService
	validator *validator.Validate
}

func NewAnalyzeHandler(svc *service.AnalyzeService, v *validator.Validate) *AnalyzeHandler {
	return &AnalyzeHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/analyze
// @Summary      Start video analysis
// @Description  Create an asynchronous job that analyzes a video against a question
// @Tags         Analyze
// @Accept       json
// @Produce      json
// @Param        request body model.AnalyzeRequest true "Analyze request"
// @Success      202 {object} model.AnalyzeResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/analyze [post]
func (h *AnalyzeHandler) Start(c *fiber.Ctx) error {
	var req model.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartAnalysis(c.Context(), &req)
	if err != nil {
		if errors.Is(err, client.ErrInvalidVideoURL) {
			return response.ValidationError(c, "Unsupported or malformed video URL", nil)
		}
		if errors.Is(err, client.ErrVideoNotFound) {
			return response.NotFound(c, "Video not found or private")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/analyze/status/:jobId
// @Summary      Get analysis job status
// @Description  Get the full record of an analysis job, including result or error once terminal
// @Tags         Analyze
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.JobStatusResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/analyze/status/{jobId} [get]
func (h *AnalyzeHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetJob(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// List handles GET /api/analyze/jobs
// @Summary      List analysis jobs
// @Description  List jobs, newest first, optionally filtered by status
// @Tags         Analyze
// @Produce      json
// @Param        status query string false "Status filter (pending|processing|completed|failed)"
// @Param        limit  query int    false "Page size (max 100)"
// @Param        offset query int    false "Page offset"
// @Success      200 {object} model.JobListResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/analyze/jobs [get]
func (h *AnalyzeHandler) List(c *fiber.Ctx) error {
	var statusFilter *model.JobStatus
	if raw := c.Query("status"); raw != "" {
		status := model.JobStatus(raw)
		if !status.Valid() {
			return response.ValidationError(c, "Unknown status filter", nil)
		}
		statusFilter = &status
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	result, err := h.service.ListJobs(c.Context(), statusFilter, limit, offset)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}

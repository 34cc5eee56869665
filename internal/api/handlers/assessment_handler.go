package handlers

import (
	"context"
	"errors"
	"io"

	"finhealth/internal/dto"
	"finhealth/internal/models"
	"finhealth/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AssessmentService is the part of service.AssessmentService the HTTP layer
// uses.
type AssessmentService interface {
	AnalyzeFile(ctx context.Context, filename string, data []byte, opts service.AssessmentOptions) (*models.AssessmentResult, error)
	AnalyzeText(ctx context.Context, text string, opts service.AssessmentOptions) (*models.AssessmentResult, error)
	History(ctx context.Context) ([]*models.AssessmentResult, error)
	Get(ctx context.Context, id string) (*models.AssessmentResult, error)
	Purge(ctx context.Context) error
}

type AssessmentHandler struct {
	svc    AssessmentService
	logger *zap.Logger
}

func NewAssessmentHandler(svc AssessmentService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		svc:    svc,
		logger: logger,
	}
}

// UploadStatement godoc
// @Summary Analyse a financial statement
// @Description Upload a PDF, spreadsheet, CSV, text or image statement and get a health report
// @Tags assessments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Statement file"
// @Param industry formData string false "Industry override"
// @Param language formData string false "Language override"
// @Success 201 {object} models.AssessmentResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /api/v1/assessments [post]
func (h *AssessmentHandler) UploadStatement(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}

	src, err := file.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
	}

	opts := service.AssessmentOptions{
		Industry: models.Industry(c.FormValue("industry")),
		Language: models.Language(c.FormValue("language")),
	}

	result, err := h.svc.AnalyzeFile(c.UserContext(), file.Filename, data, opts)
	if err != nil {
		return writeAnalysisError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// AnalyzeText godoc
// @Summary Analyse pasted text
// @Tags assessments
// @Accept json
// @Produce json
// @Param request body dto.AnalyzeTextRequest true "Statement text"
// @Success 201 {object} models.AssessmentResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/assessments/text [post]
func (h *AssessmentHandler) AnalyzeText(c *fiber.Ctx) error {
	var req dto.AnalyzeTextRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	result, err := h.svc.AnalyzeText(c.UserContext(), req.Text, service.AssessmentOptions{
		Industry: req.Industry,
		Language: req.Language,
	})
	if err != nil {
		return writeAnalysisError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListHistory godoc
// @Summary List recent reports
// @Description Newest first, at most 15 entries
// @Tags history
// @Produce json
// @Success 200 {object} dto.HistoryResponse
// @Router /api/v1/history [get]
func (h *AssessmentHandler) ListHistory(c *fiber.Ctx) error {
	items, err := h.svc.History(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(dto.HistoryResponse{Items: items, Count: len(items)})
}

// GetHistory godoc
// @Summary Restore a stored report
// @Tags history
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} models.AssessmentResult
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/history/{id} [get]
func (h *AssessmentHandler) GetHistory(c *fiber.Ctx) error {
	result, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "report not found")
		}
		h.logger.Error("Failed to load report", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(result)
}

// PurgeHistory godoc
// @Summary Delete all stored reports
// @Description Requires confirm=true
// @Tags history
// @Param confirm query bool true "Must be true"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/history [delete]
func (h *AssessmentHandler) PurgeHistory(c *fiber.Ctx) error {
	if !c.QueryBool("confirm", false) {
		return writeError(c, fiber.StatusBadRequest, "CONFIRMATION_REQUIRED", "pass confirm=true to delete all reports")
	}

	if err := h.svc.Purge(c.UserContext()); err != nil {
		h.logger.Error("Failed to purge history", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"context"
	"errors"

	"finhealth/internal/dto"
	"finhealth/internal/models"
	"finhealth/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SettingsService interface {
	Get(ctx context.Context) (models.Preferences, error)
	Update(ctx context.Context, update models.Preferences) (models.Preferences, *models.AssessmentResult, error)
}

type IntegrationService interface {
	List(ctx context.Context) ([]models.Integration, error)
	Toggle(ctx context.Context, id string) (*models.Integration, error)
}

type SettingsHandler struct {
	settings     SettingsService
	integrations IntegrationService
	logger       *zap.Logger
}

func NewSettingsHandler(settings SettingsService, integrations IntegrationService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings:     settings,
		integrations: integrations,
		logger:       logger,
	}
}

// GetSettings godoc
// @Summary Current industry and language
// @Tags settings
// @Produce json
// @Success 200 {object} dto.SettingsResponse
// @Router /api/v1/settings [get]
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	prefs, err := h.settings.Get(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to load settings", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(dto.SettingsResponse{Industry: prefs.Industry, Language: prefs.Language})
}

// UpdateSettings godoc
// @Summary Change industry and/or language
// @Description A language change re-runs the last analysis; the new report is returned but not stored in history
// @Tags settings
// @Accept json
// @Produce json
// @Param request body dto.UpdateSettingsRequest true "New settings"
// @Success 200 {object} dto.SettingsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/settings [put]
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	prefs, report, err := h.settings.Update(c.UserContext(), models.Preferences{
		Industry: req.Industry,
		Language: req.Language,
	})
	if err != nil {
		return writeAnalysisError(c, h.logger, err)
	}

	return c.JSON(dto.SettingsResponse{
		Industry: prefs.Industry,
		Language: prefs.Language,
		Report:   report,
	})
}

// ListIntegrations godoc
// @Summary Connectors and their status
// @Tags integrations
// @Produce json
// @Success 200 {object} dto.IntegrationsResponse
// @Router /api/v1/integrations [get]
func (h *SettingsHandler) ListIntegrations(c *fiber.Ctx) error {
	items, err := h.integrations.List(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list integrations", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(dto.IntegrationsResponse{Items: items})
}

// ToggleIntegration godoc
// @Summary Connect or disconnect a connector
// @Tags integrations
// @Produce json
// @Param id path string true "Integration ID"
// @Success 200 {object} models.Integration
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/integrations/{id}/toggle [post]
func (h *SettingsHandler) ToggleIntegration(c *fiber.Ctx) error {
	item, err := h.integrations.Toggle(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "integration not found")
		}
		h.logger.Error("Failed to toggle integration", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(item)
}

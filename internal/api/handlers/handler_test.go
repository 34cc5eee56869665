package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finhealth/internal/api/handlers/mocks"
	"finhealth/internal/dto"
	"finhealth/internal/models"
	"finhealth/internal/service"
	"finhealth/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	return app
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func sampleReport(id string, score int) *models.AssessmentResult {
	r := &models.AssessmentResult{ID: id, Score: score}
	r.Normalize()
	return r
}

func TestUploadStatement(t *testing.T) {
	mockSvc := new(mocks.MockAssessmentService)
	app := newTestApp()
	h := NewAssessmentHandler(mockSvc, zaptest.NewLogger(t))
	app.Post("/assessments", h.UploadStatement)

	t.Run("success", func(t *testing.T) {
		opts := service.AssessmentOptions{Industry: models.IndustryRetail, Language: models.LanguageHindi}
		mockSvc.On("AnalyzeFile", mock.Anything, "q1.txt", []byte("profit growth"), opts).
			Return(sampleReport("r1", 80), nil).Once()

		body, ct := multipartBody(t, "q1.txt", "profit growth", map[string]string{"industry": "Retail", "language": "Hindi"})
		req := httptest.NewRequest(http.MethodPost, "/assessments", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result models.AssessmentResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "r1", result.ID)
		assert.Equal(t, models.GradeAPlus, result.CreditRisk.Grade)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/assessments", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("analysis failure is generic", func(t *testing.T) {
		mockSvc.On("AnalyzeFile", mock.Anything, "data.xyz", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: \"xyz\"", service.ErrUnsupportedFormat)).Once()

		body, ct := multipartBody(t, "data.xyz", "???", nil)
		req := httptest.NewRequest(http.MethodPost, "/assessments", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set(middleware.RequestIDHeader, "req-42")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		e := decodeError(t, resp)
		assert.Equal(t, "ANALYSIS_FAILED", e.Error.Code)
		assert.Equal(t, service.AnalysisFailedMessage, e.Error.Message)
		assert.Equal(t, "req-42", e.RequestID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("busy", func(t *testing.T) {
		mockSvc.On("AnalyzeFile", mock.Anything, "q2.csv", mock.Anything, mock.Anything).
			Return(nil, service.ErrBusy).Once()

		body, ct := multipartBody(t, "q2.csv", "a,b", nil)
		req := httptest.NewRequest(http.MethodPost, "/assessments", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "BUSY", decodeError(t, resp).Error.Code)
	})
}

func TestAnalyzeText(t *testing.T) {
	mockSvc := new(mocks.MockAssessmentService)
	app := newTestApp()
	h := NewAssessmentHandler(mockSvc, zaptest.NewLogger(t))
	app.Post("/assessments/text", h.AnalyzeText)

	t.Run("success", func(t *testing.T) {
		mockSvc.On("AnalyzeText", mock.Anything, "profit", service.AssessmentOptions{Industry: models.IndustryServices}).
			Return(sampleReport("t1", 70), nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/assessments/text", strings.NewReader(`{"text":"profit","industry":"Services"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid industry", func(t *testing.T) {
		mockSvc.On("AnalyzeText", mock.Anything, "profit", mock.Anything).
			Return(nil, service.ErrInvalidIndustry).Once()

		req := httptest.NewRequest(http.MethodPost, "/assessments/text", strings.NewReader(`{"text":"profit","industry":"Mining"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_INDUSTRY", decodeError(t, resp).Error.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/assessments/text", strings.NewReader(`{"text":`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})
}

func TestHistoryEndpoints(t *testing.T) {
	mockSvc := new(mocks.MockAssessmentService)
	app := newTestApp()
	h := NewAssessmentHandler(mockSvc, zaptest.NewLogger(t))
	app.Get("/history", h.ListHistory)
	app.Get("/history/:id", h.GetHistory)
	app.Delete("/history", h.PurgeHistory)

	t.Run("list", func(t *testing.T) {
		mockSvc.On("History", mock.Anything).
			Return([]*models.AssessmentResult{sampleReport("b", 60), sampleReport("a", 40)}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body dto.HistoryResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 2, body.Count)
		assert.Equal(t, "b", body.Items[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "a").Return(sampleReport("a", 40), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history/a", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("get missing", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "zzz").Return(nil, service.ErrNotFound).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history/zzz", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("purge needs confirmation", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/history", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "CONFIRMATION_REQUIRED", decodeError(t, resp).Error.Code)
		mockSvc.AssertNotCalled(t, "Purge", mock.Anything)
	})

	t.Run("purge", func(t *testing.T) {
		mockSvc.On("Purge", mock.Anything).Return(nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/history?confirm=true", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("list error", func(t *testing.T) {
		mockSvc.On("History", mock.Anything).Return(nil, errors.New("redis down")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestSettingsEndpoints(t *testing.T) {
	settings := new(mocks.MockSettingsService)
	integrations := new(mocks.MockIntegrationService)
	app := newTestApp()
	h := NewSettingsHandler(settings, integrations, zaptest.NewLogger(t))
	app.Get("/settings", h.GetSettings)
	app.Put("/settings", h.UpdateSettings)
	app.Get("/integrations", h.ListIntegrations)
	app.Post("/integrations/:id/toggle", h.ToggleIntegration)

	t.Run("get", func(t *testing.T) {
		settings.On("Get", mock.Anything).Return(models.DefaultPreferences(), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/settings", nil))
		require.NoError(t, err)
		var body dto.SettingsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, models.IndustryRetail, body.Industry)
		assert.Equal(t, models.LanguageEnglish, body.Language)
		assert.Nil(t, body.Report)
	})

	t.Run("language change returns report", func(t *testing.T) {
		update := models.Preferences{Language: models.LanguageTelugu}
		prefs := models.Preferences{Industry: models.IndustryRetail, Language: models.LanguageTelugu}
		settings.On("Update", mock.Anything, update).Return(prefs, sampleReport("re", 55), nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"language":"Telugu"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body dto.SettingsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.Report)
		assert.Equal(t, "re", body.Report.ID)
	})

	t.Run("invalid language", func(t *testing.T) {
		settings.On("Update", mock.Anything, models.Preferences{Language: "Latin"}).
			Return(models.DefaultPreferences(), nil, service.ErrInvalidLanguage).Once()

		req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"language":"Latin"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LANGUAGE", decodeError(t, resp).Error.Code)
	})

	t.Run("list integrations", func(t *testing.T) {
		integrations.On("List", mock.Anything).Return(models.IntegrationCatalog, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/integrations", nil))
		require.NoError(t, err)
		var body dto.IntegrationsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body.Items, 3)
	})

	t.Run("toggle", func(t *testing.T) {
		item := models.IntegrationCatalog[0]
		item.Connected = true
		integrations.On("Toggle", mock.Anything, "stripe").Return(&item, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/integrations/stripe/toggle", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body models.Integration
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Connected)
	})

	t.Run("toggle unknown", func(t *testing.T) {
		integrations.On("Toggle", mock.Anything, "paypal").Return(nil, service.ErrNotFound).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/integrations/paypal/toggle", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		app := newTestApp()
		app.Get("/health", HealthCheck(nil, "heuristic", []string{"txt"}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body dto.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, "heuristic", body.Strategy)
	})

	t.Run("store down", func(t *testing.T) {
		app := newTestApp()
		app.Get("/health", HealthCheck(func(context.Context) error { return errors.New("refused") }, "heuristic", nil))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decodeError(t, resp)
	assert.Equal(t, "NOT_FOUND", e.Error.Code)
	assert.NotEmpty(t, e.RequestID)
}

package dto

import "finhealth/internal/models"

type UpdateSettingsRequest struct {
	Industry models.Industry `json:"industry,omitempty"`
	Language models.Language `json:"language,omitempty"`
}

// SettingsResponse carries the re-generated report when the language change
// triggered a re-analysis.
type SettingsResponse struct {
	Industry models.Industry          `json:"industry"`
	Language models.Language          `json:"language"`
	Report   *models.AssessmentResult `json:"report,omitempty"`
}

type IntegrationsResponse struct {
	Items []models.Integration `json:"items"`
}

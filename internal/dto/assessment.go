package dto

import "finhealth/internal/models"

type AnalyzeTextRequest struct {
	Text     string          `json:"text"`
	Industry models.Industry `json:"industry,omitempty"`
	Language models.Language `json:"language,omitempty"`
}

type HistoryResponse struct {
	Items []*models.AssessmentResult `json:"items"`
	Count int                        `json:"count"`
}

type HealthResponse struct {
	Status   string   `json:"status"`
	Strategy string   `json:"strategy,omitempty"`
	Formats  []string `json:"formats,omitempty"`
}

// ErrorResponse documents the error body shared by every endpoint.
type ErrorResponse struct {
	RequestID string      `json:"request_id"`
	Error     ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

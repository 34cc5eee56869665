package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"finhealth/internal/models"

	"go.uber.org/zap"
)

const maxBackendErrorBody = 4096

type backendRequest struct {
	Text     string          `json:"text"`
	Industry models.Industry `json:"industry"`
	Language models.Language `json:"language"`
}

// BackendAnalyzer delegates scoring to a remote service exposing
// POST {base}/analyze.
type BackendAnalyzer struct {
	baseURL string
	client  *http.Client
	id      reportIdentity
	logger  *zap.Logger
}

func NewBackendAnalyzer(baseURL string, client *http.Client, logger *zap.Logger) *BackendAnalyzer {
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendAnalyzer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		id:      defaultIdentity(),
		logger:  logger,
	}
}

func (a *BackendAnalyzer) Name() string { return StrategyBackend }

func (a *BackendAnalyzer) Analyze(ctx context.Context, in AnalysisInput) (*models.AssessmentResult, error) {
	if in.blank() {
		return emptyReport(a.id, in, a.Name()), nil
	}

	text := in.Text
	if text == "" {
		text = flattenRows(in.Rows)
	}
	body, err := json.Marshal(backendRequest{Text: text, Industry: in.Industry, Language: in.Language})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxBackendErrorBody))
		a.logger.Warn("Analysis backend returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(msg)),
		)
		return nil, &NetworkError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var result models.AssessmentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &NetworkError{Status: resp.StatusCode, Message: "invalid response body: " + err.Error()}
	}

	id, ts := a.id.stamp()
	if result.ID == "" {
		result.ID = id
	}
	if result.Timestamp == 0 {
		result.Timestamp = ts.UnixMilli()
	}
	if !result.Industry.Valid() {
		result.Industry = in.Industry
	}
	if !result.Language.Valid() {
		result.Language = in.Language
	}
	result.Strategy = a.Name()
	result.Normalize()
	return &result, nil
}

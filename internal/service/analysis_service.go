package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finhealth/internal/models"
	"finhealth/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StrategyHeuristic = "heuristic"
	StrategyStub      = "stub"
	StrategyBackend   = "backend"
)

// AnalysisInput is what every scoring strategy receives.
type AnalysisInput struct {
	Text     string
	Rows     [][]string
	Industry models.Industry
	Language models.Language
}

func (in AnalysisInput) blank() bool {
	return strings.TrimSpace(in.Text) == "" && len(in.Rows) == 0
}

// Analyzer produces an assessment report from extracted text.
type Analyzer interface {
	Analyze(ctx context.Context, in AnalysisInput) (*models.AssessmentResult, error)
	Name() string
}

// NewAnalyzer builds the strategy named in cfg.Strategy.
func NewAnalyzer(cfg *config.AnalysisConfig, logger *zap.Logger) (Analyzer, error) {
	switch cfg.Strategy {
	case "", StrategyHeuristic:
		return NewHeuristicAnalyzer(logger), nil
	case StrategyStub:
		return NewStubAnalyzer(cfg.StubDelay, logger), nil
	case StrategyBackend:
		return NewBackendAnalyzer(cfg.BackendURL, &http.Client{Timeout: cfg.Timeout}, logger), nil
	default:
		return nil, fmt.Errorf("unknown analysis strategy %q", cfg.Strategy)
	}
}

// clock and id generation are swappable for deterministic tests.
type reportIdentity struct {
	now   func() time.Time
	newID func() string
}

func defaultIdentity() reportIdentity {
	return reportIdentity{now: time.Now, newID: uuid.NewString}
}

func (r reportIdentity) stamp() (string, time.Time) {
	return r.newID(), r.now()
}

// emptyReport is the zero result shared by all strategies for blank input.
func emptyReport(id reportIdentity, in AnalysisInput, strategy string) *models.AssessmentResult {
	rid, ts := id.stamp()
	r := models.EmptyResult(rid, ts.UnixMilli())
	r.Industry = in.Industry
	r.Language = in.Language
	r.Strategy = strategy
	return r
}

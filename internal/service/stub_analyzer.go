package service

import (
	"context"
	"strings"
	"time"

	"finhealth/internal/models"

	"go.uber.org/zap"
)

const (
	stubBaseScore = 60
	stubRevenue   = 1000000
	stubExpenses  = 700000
)

// StubAnalyzer is the offline demo strategy: a fixed delay followed by a
// canned report whose score reacts to a handful of keywords.
type StubAnalyzer struct {
	delay  time.Duration
	id     reportIdentity
	logger *zap.Logger
}

func NewStubAnalyzer(delay time.Duration, logger *zap.Logger) *StubAnalyzer {
	return &StubAnalyzer{delay: delay, id: defaultIdentity(), logger: logger}
}

func (a *StubAnalyzer) Name() string { return StrategyStub }

func (a *StubAnalyzer) Analyze(ctx context.Context, in AnalysisInput) (*models.AssessmentResult, error) {
	if in.blank() {
		return emptyReport(a.id, in, a.Name()), nil
	}

	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	text := in.Text
	if text == "" {
		text = flattenRows(in.Rows)
	}
	lower := strings.ToLower(text)

	// Plain substring checks; no negation handling in the demo strategy.
	signals := keywordSignals{}
	for _, kw := range []string{"profit", "growth", "loss", "debt"} {
		signals[kw] = strings.Contains(lower, kw)
	}
	score := stubBaseScore
	if signals["profit"] {
		score += 15
	}
	if signals["growth"] {
		score += 10
	}
	if signals["loss"] {
		score -= 20
	}
	if signals["debt"] {
		score -= 10
	}

	fin := financials{revenue: stubRevenue, expenses: stubExpenses}
	if signals["debt"] {
		fin.loans = stubRevenue * 0.3
	}

	id, ts := a.id.stamp()
	result := buildReport(reportParams{
		id:        id,
		timestamp: ts,
		score:     score,
		signals:   signals,
		fin:       fin,
		industry:  in.Industry,
		language:  in.Language,
		strategy:  a.Name(),
	})
	a.logger.Debug("Stub analysis completed", zap.Int("score", result.Score))
	return result, nil
}

package service

import (
	"context"
	"testing"
	"time"

	"finhealth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedTime = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

func fixedIdentity(id string) reportIdentity {
	return reportIdentity{
		now:   func() time.Time { return fixedTime },
		newID: func() string { return id },
	}
}

func newTestHeuristic(t *testing.T) *HeuristicAnalyzer {
	t.Helper()
	a := NewHeuristicAnalyzer(zaptest.NewLogger(t))
	a.id = fixedIdentity("report-1")
	return a
}

func analyzeText(t *testing.T, text string) *models.AssessmentResult {
	t.Helper()
	r, err := newTestHeuristic(t).Analyze(context.Background(), AnalysisInput{
		Text:     text,
		Industry: models.IndustryRetail,
		Language: models.LanguageEnglish,
	})
	require.NoError(t, err)
	return r
}

func TestHeuristic_WorkedExample(t *testing.T) {
	r := analyzeText(t, "Q1 profit growth, revenue 500000, no debt")

	assert.Equal(t, 90, r.Score)
	assert.Equal(t, models.GradeAPlus, r.CreditRisk.Grade)
	assert.Equal(t, "report-1", r.ID)
	assert.Equal(t, fixedTime.UnixMilli(), r.Timestamp)
	assert.Equal(t, StrategyHeuristic, r.Strategy)

	pl := r.Statements.PL
	require.Len(t, pl, 5)
	assert.Equal(t, 500000.0, pl[1].Value)
	assert.Equal(t, 300000.0, pl[3].Value)
	assert.Equal(t, 200000.0, pl[4].Value)

	assert.Zero(t, r.CreditRisk.LoanObligations)
	assert.Equal(t, 112500.0, r.CreditRisk.BorrowingCapacity)
	assert.Equal(t, 1.67, r.CreditRisk.LiquidityRatio)
	assert.Equal(t, 20.0, r.CreditRisk.DebtServiceRatio)
	assert.NotContains(t, r.CreditRisk.RiskDrivers, "Outstanding debt obligations")
}

func TestHeuristic_EmptyInput(t *testing.T) {
	r := analyzeText(t, "  \n\t ")

	assert.Equal(t, 0, r.Score)
	assert.Equal(t, models.GradeD, r.CreditRisk.Grade)
	assert.Empty(t, r.Metrics)
	assert.Empty(t, r.Forecast)
	assert.Empty(t, r.Scenarios)
	assert.NotNil(t, r.Recommendations)
	assert.Equal(t, models.IndustryRetail, r.Industry)
}

func TestHeuristic_LossLowersScore(t *testing.T) {
	profit := analyzeText(t, "net profit for the year")
	both := analyzeText(t, "net profit for the year, loss on disposal")

	assert.Greater(t, profit.Score, both.Score)
	assert.Equal(t, 70, profit.Score)
	assert.Equal(t, 50, both.Score)
}

func TestHeuristic_Negation(t *testing.T) {
	tests := []struct {
		text  string
		score int
	}{
		{"profit, without loan", 70},
		{"profit, zero debt", 70},
		{"profit, nil loss", 70},
		{"profit, no debt but a term loan", 60},
		{"no debt this year, though debt rose last year", 40},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.score, scanKeywords(tt.text).score())
		})
	}
}

func TestHeuristic_ScoreBoundsAndGrade(t *testing.T) {
	inputs := []string{
		"profit profit growth revenue",
		"loss debt loan",
		"LOSS DEBT LOAN and more loss",
		"revenue ₹2.5 crore, profit up, growth strong",
		"random words without any signal",
		"12345",
	}

	for _, in := range inputs {
		r := analyzeText(t, in)
		assert.GreaterOrEqual(t, r.Score, 0, in)
		assert.LessOrEqual(t, r.Score, 100, in)
		assert.Equal(t, models.GradeForScore(r.Score), r.CreditRisk.Grade, in)
	}
}

func TestHeuristic_RevenueProxy(t *testing.T) {
	assert.Equal(t, 25000000.0, revenueProxy("revenue 2.5 crore, costs 40k"))
	assert.Equal(t, 120000.0, revenueProxy("sales ₹1,20,000"))
	assert.Equal(t, 100000.0, revenueProxy("sales of 500 units"), "floor applies")
	assert.Equal(t, 100000.0, revenueProxy("no numbers here"))
}

func TestHeuristic_RevenueProxyIgnoresCreditDebitMarkers(t *testing.T) {
	assert.Equal(t, 100000.0, revenueProxy("Closing balance 45,000 Cr, opening 40,000 Dr, profit"))
	assert.Equal(t, 245000.0, revenueProxy("Closing balance 2,45,000 Cr"))
	assert.Equal(t, 30000000.0, revenueProxy("turnover 3 crores"))

	got, ok := parseAmount("45,000 Cr")
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestHeuristic_LossMakesExpensesHeavier(t *testing.T) {
	r := analyzeText(t, "revenue 1000000, loss")

	assert.Equal(t, 850000.0, r.Statements.PL[3].Value)
	assert.Contains(t, r.CreditRisk.RiskDrivers, "Reported operating losses")
}

func TestHeuristic_DebtSetsLoanObligations(t *testing.T) {
	r := analyzeText(t, "revenue 1000000 and a bank loan")

	assert.Equal(t, 300000.0, r.CreditRisk.LoanObligations)
	assert.Contains(t, r.CreditRisk.RiskDrivers, "Loan repayment burden")
}

func TestHeuristic_UsesTableWhenRowsClassify(t *testing.T) {
	a := newTestHeuristic(t)
	rows := [][]string{
		{"Sales", "450000"},
		{"Salaries", "120000"},
		{"Rent", "30000"},
		{"Term loan", "200000"},
	}

	r, err := a.Analyze(context.Background(), AnalysisInput{Rows: rows, Text: flattenRows(rows), Industry: models.IndustryServices})
	require.NoError(t, err)

	assert.Equal(t, 50, r.Score)
	assert.Equal(t, 450000.0, r.Statements.PL[1].Value)
	assert.Equal(t, 150000.0, r.Statements.PL[3].Value)
	assert.Equal(t, 200000.0, r.CreditRisk.LoanObligations)
}

func TestHeuristic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestHeuristic(t).Analyze(ctx, AnalysisInput{Text: "profit"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		cell string
		want float64
		ok   bool
	}{
		{"450000", 450000, true},
		{"₹1,20,000", 120000, true},
		{"Rs. 5000", 5000, true},
		{"(12,000)", 12000, true},
		{"5 lakh", 500000, true},
		{"12%", 12, true},
		{"Q1", 0, false},
		{"Salaries", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := parseAmount(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

package service

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"finhealth/internal/models"

	"go.uber.org/zap"
)

const (
	baseScore    = 50
	revenueFloor = 100000
)

type keywordRule struct {
	keyword string
	delta   int
}

// Keyword deltas applied to the base score, case-insensitively.
var keywordRules = []keywordRule{
	{"profit", 20},
	{"growth", 10},
	{"revenue", 10},
	{"loss", -20},
	{"debt", -10},
	{"loan", -10},
}

var negations = []string{"no ", "zero ", "without ", "nil "}

// keywordSignals records which keywords counted after negation filtering.
type keywordSignals map[string]bool

func (s keywordSignals) has(keyword string) bool { return s[keyword] }

func (s keywordSignals) score() int {
	score := baseScore
	for _, rule := range keywordRules {
		if s[rule.keyword] {
			score += rule.delta
		}
	}
	return score
}

// scanKeywords finds the keywords present in text. A keyword only counts
// when at least one occurrence is not directly preceded by a negation, so
// "no debt" is not a debt signal.
func scanKeywords(text string) keywordSignals {
	lower := strings.ToLower(text)
	signals := keywordSignals{}
	for _, rule := range keywordRules {
		signals[rule.keyword] = hasAffirmed(lower, rule.keyword)
	}
	return signals
}

func hasAffirmed(lower, keyword string) bool {
	offset := 0
	for {
		i := strings.Index(lower[offset:], keyword)
		if i < 0 {
			return false
		}
		pos := offset + i
		if !negatedAt(lower, pos) {
			return true
		}
		offset = pos + len(keyword)
	}
}

func negatedAt(lower string, pos int) bool {
	prefix := lower[:pos]
	for _, n := range negations {
		if strings.HasSuffix(prefix, n) {
			return true
		}
	}
	return false
}

// amountPattern matches money-looking tokens: optional currency prefix,
// digits with optional thousands separators and decimals, optional scale.
// "Cr" and "Dr" after an amount are bank credit/debit markers, so crore is
// only recognised spelled out.
var amountPattern = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr|\$)?\s*(\d{1,3}(?:,\d{2,3})+|\d+)(\.\d+)?\s*(crores?|lakhs?|lacs?|mn|k|m)?\b`)

func scaleFor(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "k":
		return 1e3
	case "lakh", "lakhs", "lac", "lacs":
		return 1e5
	case "m", "mn":
		return 1e6
	case "crore", "crores":
		return 1e7
	default:
		return 1
	}
}

// extractAmounts returns every monetary value found in text.
func extractAmounts(text string) []float64 {
	var out []float64
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "")+m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, v*scaleFor(m[3]))
	}
	return out
}

// parseAmount reads a single spreadsheet cell. Accounting negatives such as
// "(12,000)" are returned as positive magnitudes.
func parseAmount(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	s = strings.Trim(s, "()")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	m := amountPattern.FindStringSubmatch(s)
	if m == nil || strings.TrimSpace(m[0]) != s {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "")+m[2], 64)
	if err != nil {
		return 0, false
	}
	return math.Abs(v * scaleFor(m[3])), true
}

// revenueProxy is the largest amount in text, never below revenueFloor.
func revenueProxy(text string) float64 {
	revenue := 0.0
	for _, v := range extractAmounts(text) {
		if v > revenue {
			revenue = v
		}
	}
	return math.Max(revenue, revenueFloor)
}

// HeuristicAnalyzer is the default keyword/table scoring strategy.
type HeuristicAnalyzer struct {
	id     reportIdentity
	logger *zap.Logger
}

func NewHeuristicAnalyzer(logger *zap.Logger) *HeuristicAnalyzer {
	return &HeuristicAnalyzer{id: defaultIdentity(), logger: logger}
}

func (a *HeuristicAnalyzer) Name() string { return StrategyHeuristic }

func (a *HeuristicAnalyzer) Analyze(ctx context.Context, in AnalysisInput) (*models.AssessmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.blank() {
		return emptyReport(a.id, in, a.Name()), nil
	}

	var (
		fin     financials
		signals keywordSignals
		score   int
		path    = "text"
	)

	if table, ok := scoreTable(in.Rows); ok {
		path = "table"
		signals = scanKeywords(flattenRows(in.Rows))
		fin = table.financials()
		score = table.score(signals)
	} else {
		signals = scanKeywords(in.Text)
		fin = textFinancials(in.Text, signals)
		score = signals.score()
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

	a.logger.Debug("Heuristic analysis completed",
		zap.String("path", path),
		zap.Int("score", result.Score),
		zap.Float64("revenue", fin.revenue),
		zap.Float64("expenses", fin.expenses),
	)
	return result, nil
}

// textFinancials derives figures from free text.
func textFinancials(text string, signals keywordSignals) financials {
	revenue := revenueProxy(text)
	ratio := 0.85
	if signals.has("profit") {
		ratio = 0.6
	}
	fin := financials{revenue: revenue, expenses: math.Round(revenue * ratio)}
	if signals.has("debt") || signals.has("loan") {
		fin.loans = math.Round(revenue * 0.3)
	}
	return fin
}

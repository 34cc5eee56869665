package service

import (
	"math"
	"regexp"
	"strings"
)

type bucket int

const (
	bucketNone bucket = iota
	bucketReceivables
	bucketPayables
	bucketInventory
	bucketLoans
	bucketExpenses
	bucketRevenue
	bucketIgnored
)

// Checked in order: "debtors" must win over "debt", "cost of sales" over
// "sales".
var bucketPatterns = []struct {
	bucket  bucket
	pattern *regexp.Regexp
}{
	{bucketReceivables, regexp.MustCompile(`\breceivables?\b|\bdebtors\b`)},
	{bucketPayables, regexp.MustCompile(`\bpayables?\b|\bcreditors\b`)},
	{bucketInventory, regexp.MustCompile(`\binventor(y|ies)\b|\bstocks?\b`)},
	{bucketLoans, regexp.MustCompile(`\bloans?\b|\bborrowings?\b|\bdebts?\b|\bemis?\b`)},
	{bucketExpenses, regexp.MustCompile(`\bexpenses?\b|\bexpenditure\b|\bopex\b|\bcosts?\b|\bpurchases?\b|\bsalar(y|ies)\b|\bwages\b|\brent(al|s)?\b|\butilit(y|ies)\b`)},
	{bucketRevenue, regexp.MustCompile(`\brevenues?\b|\bsales\b|\bturnover\b|\bincome\b`)},
}

// Derived and balance-sheet lines that look like a bucket but are not one of
// its components.
var ignoredLabels = regexp.MustCompile(`\bnet (income|profit|loss)\b|\bincome tax\b|\bcurrent (assets|liabilities)\b|\b(stock|share)holders\b|\bequity\b`)

var totalLabel = regexp.MustCompile(`^(sub\s*-?\s*)?totals?\b`)

const (
	tableRevenueFallback  = 500000
	tableExpenseRatio     = 0.7
	revenueCandidateFloor = 1000
)

type tableFigures struct {
	sums       map[bucket]float64
	totals     map[bucket]float64
	matched    int
	candidates []float64
}

func classifyLabel(label string) bucket {
	lower := strings.ToLower(label)
	if ignoredLabels.MatchString(lower) {
		return bucketIgnored
	}
	for _, bp := range bucketPatterns {
		if bp.pattern.MatchString(lower) {
			return bp.bucket
		}
	}
	return bucketNone
}

// scoreTable sums the numeric cells of every row whose label cells match a
// bucket. "Total" rows are kept apart and replace the component rows of
// their bucket. ok is false when no row could be classified, in which case
// the caller falls back to the free-text path.
func scoreTable(rows [][]string) (*tableFigures, bool) {
	t := &tableFigures{sums: map[bucket]float64{}, totals: map[bucket]float64{}}
	for _, row := range rows {
		var (
			labels  []string
			amounts []float64
		)
		for _, cell := range row {
			if v, ok := parseAmount(cell); ok {
				amounts = append(amounts, v)
			} else if strings.TrimSpace(cell) != "" {
				labels = append(labels, cell)
			}
		}
		if len(amounts) == 0 {
			continue
		}

		label := strings.TrimSpace(strings.Join(labels, " "))
		b := classifyLabel(label)
		if b == bucketIgnored {
			continue
		}
		if b == bucketNone {
			for _, v := range amounts {
				if v >= revenueCandidateFloor {
					t.candidates = append(t.candidates, v)
				}
			}
			continue
		}
		t.matched++
		target := t.sums
		if totalLabel.MatchString(strings.ToLower(label)) {
			target = t.totals
		}
		for _, v := range amounts {
			target[b] += v
		}
	}
	return t, t.matched > 0
}

func (t *tableFigures) sum(b bucket) float64 {
	if v, ok := t.totals[b]; ok {
		return v
	}
	return t.sums[b]
}

func (t *tableFigures) financials() financials {
	revenue := t.sum(bucketRevenue)
	if revenue == 0 {
		for _, c := range t.candidates {
			revenue = math.Max(revenue, c)
		}
	}
	if revenue == 0 {
		revenue = tableRevenueFallback
	}
	expenses := t.sum(bucketExpenses)
	if expenses == 0 {
		expenses = math.Round(revenue * tableExpenseRatio)
	}
	return financials{
		revenue:     revenue,
		expenses:    expenses,
		loans:       t.sum(bucketLoans),
		receivables: t.sum(bucketReceivables),
		payables:    t.sum(bucketPayables),
		inventory:   t.sum(bucketInventory),
	}
}

// score starts from the keyword score of the flattened sheet and adjusts it
// with the margin and leverage of the summed figures.
func (t *tableFigures) score(signals keywordSignals) int {
	fin := t.financials()
	score := signals.score()
	net := fin.revenue - fin.expenses
	if net/fin.revenue >= 0.2 {
		score += 10
	}
	if net < 0 {
		score -= 10
	}
	if fin.loans > fin.revenue*0.5 {
		score -= 10
	}
	return score
}

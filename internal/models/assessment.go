package models

// Grade is the credit-risk letter derived from the health score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

// GradeForScore maps a 0-100 score to its grade.
func GradeForScore(score int) Grade {
	switch {
	case score >= 80:
		return GradeAPlus
	case score >= 70:
		return GradeA
	case score >= 55:
		return GradeB
	case score >= 40:
		return GradeC
	default:
		return GradeD
	}
}

// ClampScore bounds a raw score to [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

type MetricStatus string

const (
	StatusPositive MetricStatus = "positive"
	StatusNegative MetricStatus = "negative"
	StatusNeutral  MetricStatus = "neutral"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type ComplianceStatus string

const (
	ComplianceOK      ComplianceStatus = "Compliant"
	ComplianceAtRisk  ComplianceStatus = "At Risk"
	ComplianceFailing ComplianceStatus = "Non-Compliant"
)

// AssessmentResult is the full report rendered by the dashboard. Every slice
// is non-nil so that it serialises as [] rather than null.
type AssessmentResult struct {
	ID              string              `json:"id"`
	Timestamp       int64               `json:"timestamp"`
	Score           int                 `json:"score"`
	Industry        Industry            `json:"industry"`
	Language        Language            `json:"language"`
	Strategy        string              `json:"strategy"`
	CreditRisk      CreditRisk          `json:"creditRisk"`
	Metrics         []Metric            `json:"metrics"`
	Statements      Statements          `json:"statements"`
	Bookkeeping     Bookkeeping         `json:"bookkeeping"`
	Optimization    []CostOptimization  `json:"optimization"`
	Recommendations []ProductSuggestion `json:"recommendations"`
	Forecast        []ForecastPoint     `json:"forecast"`
	Scenarios       []Scenario          `json:"scenarios"`
	TaxCompliance   TaxCompliance       `json:"taxCompliance"`
	Benchmarking    Benchmarking        `json:"benchmarking"`
	WorkingCapital  WorkingCapital      `json:"workingCapital"`
	Source          *SourceInfo         `json:"source,omitempty"`
	// Empty marks the fixed report for blank input. A real statement can
	// still score 0.
	Empty bool `json:"empty,omitempty"`
}

type CreditRisk struct {
	Grade             Grade    `json:"grade"`
	BorrowingCapacity float64  `json:"borrowingCapacity"`
	RiskDrivers       []string `json:"riskDrivers"`
	LoanObligations   float64  `json:"loanObligations"`
	DebtServiceRatio  float64  `json:"debtServiceRatio"`
	LiquidityRatio    float64  `json:"liquidityRatio"`
}

type Metric struct {
	Label  string       `json:"label"`
	Value  string       `json:"value"`
	Change float64      `json:"change"`
	Status MetricStatus `json:"status"`
}

type StatementRow struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	IsHeader bool    `json:"isHeader,omitempty"`
}

type Statements struct {
	PL           []StatementRow `json:"pl"`
	BalanceSheet []StatementRow `json:"balanceSheet"`
	CashFlow     []StatementRow `json:"cashFlow"`
}

type Discrepancy struct {
	TransactionID string  `json:"transactionId"`
	Issue         string  `json:"issue"`
	Suggestion    string  `json:"suggestion"`
	Amount        float64 `json:"amount"`
}

type Bookkeeping struct {
	HealthScore    int           `json:"healthScore"`
	Discrepancies  []Discrepancy `json:"discrepancies"`
	AutomationTips []string      `json:"automationTips"`
}

type CostOptimization struct {
	Area            string  `json:"area"`
	CurrentSpend    float64 `json:"currentSpend"`
	PotentialSaving float64 `json:"potentialSaving"`
	ActionPlan      string  `json:"actionPlan"`
}

type ProductSuggestion struct {
	ProductName    string `json:"productName"`
	Provider       string `json:"provider"`
	Benefit        string `json:"benefit"`
	RelevanceScore int    `json:"relevanceScore"`
}

type ForecastPoint struct {
	Month   string  `json:"month"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
	Net     float64 `json:"net"`
}

type Scenario struct {
	Label             string    `json:"label"`
	Description       string    `json:"description"`
	ImpactOnNetProfit float64   `json:"impactOnNetProfit"`
	RiskLevel         RiskLevel `json:"riskLevel"`
}

type TaxCompliance struct {
	Status               ComplianceStatus `json:"status"`
	Score                int              `json:"score"`
	NextFilingDate       string           `json:"nextFilingDate"`
	GSTCreditsIdentified float64          `json:"gstCreditsIdentified"`
	PotentialDeductions  []string         `json:"potentialDeductions"`
	AuditRisk            int              `json:"auditRisk"`
}

type RadarPoint struct {
	Category string  `json:"category"`
	Business float64 `json:"business"`
	Industry float64 `json:"industry"`
}

type Benchmarking struct {
	IndustryAverage int          `json:"industryAverage"`
	Percentile      int          `json:"percentile"`
	RadarData       []RadarPoint `json:"radarData"`
}

type WorkingCapital struct {
	Receivables float64 `json:"receivables"`
	Payables    float64 `json:"payables"`
	Inventory   float64 `json:"inventory"`
	CycleDays   int     `json:"cycleDays"`
	BurnRate    float64 `json:"burnRate"`
}

// SourceInfo records where the analysed text came from.
type SourceInfo struct {
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	Method     string `json:"method"`
	Pages      int    `json:"pages,omitempty"`
	TextLength int    `json:"textLength"`
}

// EmptyResult is the fixed zero report returned for blank input.
func EmptyResult(id string, timestamp int64) *AssessmentResult {
	r := &AssessmentResult{ID: id, Timestamp: timestamp, Empty: true}
	r.CreditRisk.Grade = GradeD
	r.TaxCompliance.Status = ComplianceFailing
	r.Normalize()
	return r
}

// Normalize enforces the report invariants: score within bounds, grade
// consistent with score, no nil slices.
func (r *AssessmentResult) Normalize() {
	r.Score = ClampScore(r.Score)
	r.CreditRisk.Grade = GradeForScore(r.Score)

	if r.CreditRisk.RiskDrivers == nil {
		r.CreditRisk.RiskDrivers = []string{}
	}
	if r.Metrics == nil {
		r.Metrics = []Metric{}
	}
	if r.Statements.PL == nil {
		r.Statements.PL = []StatementRow{}
	}
	if r.Statements.BalanceSheet == nil {
		r.Statements.BalanceSheet = []StatementRow{}
	}
	if r.Statements.CashFlow == nil {
		r.Statements.CashFlow = []StatementRow{}
	}
	if r.Bookkeeping.Discrepancies == nil {
		r.Bookkeeping.Discrepancies = []Discrepancy{}
	}
	if r.Bookkeeping.AutomationTips == nil {
		r.Bookkeeping.AutomationTips = []string{}
	}
	if r.Optimization == nil {
		r.Optimization = []CostOptimization{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []ProductSuggestion{}
	}
	if r.Forecast == nil {
		r.Forecast = []ForecastPoint{}
	}
	if r.Scenarios == nil {
		r.Scenarios = []Scenario{}
	}
	if r.TaxCompliance.PotentialDeductions == nil {
		r.TaxCompliance.PotentialDeductions = []string{}
	}
	if r.Benchmarking.RadarData == nil {
		r.Benchmarking.RadarData = []RadarPoint{}
	}
}

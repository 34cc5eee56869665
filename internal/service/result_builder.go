package service

import (
	"fmt"
	"math"
	"time"

	"finhealth/internal/models"
)

// financials are the raw figures a strategy derived from the input. Zero
// receivables, payables or inventory mean "not reported" and are estimated.
type financials struct {
	revenue     float64
	expenses    float64
	loans       float64
	receivables float64
	payables    float64
	inventory   float64
}

func (f financials) net() float64 { return f.revenue - f.expenses }

func (f financials) margin() float64 {
	if f.revenue == 0 {
		return 0
	}
	return f.net() / f.revenue
}

var industryAverages = map[models.Industry]int{
	models.IndustryManufacturing: 62,
	models.IndustryRetail:        58,
	models.IndustryAgriculture:   52,
	models.IndustryServices:      64,
	models.IndustryLogistics:     56,
	models.IndustryECommerce:     60,
}

// Inventory held as a share of annual revenue.
var inventoryRatios = map[models.Industry]float64{
	models.IndustryManufacturing: 0.15,
	models.IndustryRetail:        0.12,
	models.IndustryAgriculture:   0.10,
	models.IndustryServices:      0.02,
	models.IndustryLogistics:     0.04,
	models.IndustryECommerce:     0.08,
}

var industryDeductions = map[models.Industry]string{
	models.IndustryManufacturing: "Depreciation on plant and machinery",
	models.IndustryRetail:        "Shop rent and fit-out expenses",
	models.IndustryAgriculture:   "Agricultural income exemption",
	models.IndustryServices:      "Professional software subscriptions",
	models.IndustryLogistics:     "Fuel and vehicle maintenance",
	models.IndustryECommerce:     "Marketplace commissions and advertising",
}

type reportParams struct {
	id        string
	timestamp time.Time
	score     int
	signals   keywordSignals
	fin       financials
	industry  models.Industry
	language  models.Language
	strategy  string
}

// buildReport derives every dashboard section from the score and figures.
// All sections are pure functions of their inputs.
func buildReport(p reportParams) *models.AssessmentResult {
	if !p.industry.Valid() {
		p.industry = models.DefaultIndustry
	}
	if !p.language.Valid() {
		p.language = models.DefaultLanguage
	}
	score := models.ClampScore(p.score)
	p.score = score
	wc := workingCapital(p.fin, p.industry)

	r := &models.AssessmentResult{
		ID:             p.id,
		Timestamp:      p.timestamp.UnixMilli(),
		Score:          score,
		Industry:       p.industry,
		Language:       p.language,
		Strategy:       p.strategy,
		CreditRisk:     creditRisk(p),
		Metrics:        keyMetrics(p),
		Statements:     statements(p.fin, wc),
		Bookkeeping:    bookkeeping(p),
		Optimization:   optimization(p.fin, wc),
		Forecast:       forecast(p.fin, p.signals, p.timestamp),
		Scenarios:      scenarios(p.fin, score),
		TaxCompliance:  taxCompliance(p),
		Benchmarking:   benchmarking(p, wc),
		WorkingCapital: wc,
	}
	r.Normalize()
	return r
}

func debtService(fin financials) float64 {
	if fin.loans > 0 {
		return fin.loans * 0.2
	}
	return fin.revenue * 0.02
}

func creditRisk(p reportParams) models.CreditRisk {
	fin := p.fin
	cr := models.CreditRisk{
		Grade:             models.GradeForScore(p.score),
		BorrowingCapacity: math.Round(fin.revenue * 0.25 * float64(p.score) / 100),
		LoanObligations:   math.Round(fin.loans),
		RiskDrivers:       riskDrivers(p),
	}
	if fin.expenses > 0 {
		cr.LiquidityRatio = round2(fin.revenue / fin.expenses)
	}
	if ds := debtService(fin); ds > 0 {
		cr.DebtServiceRatio = round2(fin.net() / ds)
	}
	return cr
}

func riskDrivers(p reportParams) []string {
	var drivers []string
	if p.signals.has("loss") {
		drivers = append(drivers, "Reported operating losses")
	}
	if p.signals.has("debt") {
		drivers = append(drivers, "Outstanding debt obligations")
	}
	if p.signals.has("loan") {
		drivers = append(drivers, "Loan repayment burden")
	}
	if !p.signals.has("profit") {
		drivers = append(drivers, "No clear profitability signal")
	}
	if !p.signals.has("growth") {
		drivers = append(drivers, "No growth indicators")
	}
	if p.fin.margin() < 0.1 {
		drivers = append(drivers, "Thin net margin")
	}
	if p.fin.loans > p.fin.revenue*0.5 {
		drivers = append(drivers, "High leverage relative to revenue")
	}
	return drivers
}

// formatINR renders an amount in lakhs or crores, the way Indian SMEs read
// their books.
func formatINR(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e7:
		return fmt.Sprintf("%s₹%.2f Cr", sign, v/1e7)
	case v >= 1e5:
		return fmt.Sprintf("%s₹%.2f L", sign, v/1e5)
	default:
		return fmt.Sprintf("%s₹%.0f", sign, v)
	}
}

func statusOf(v float64) models.MetricStatus {
	switch {
	case v > 0:
		return models.StatusPositive
	case v < 0:
		return models.StatusNegative
	default:
		return models.StatusNeutral
	}
}

func keyMetrics(p reportParams) []models.Metric {
	fin := p.fin
	growth := -2.5
	if p.signals.has("growth") {
		growth = 8.5
	}
	netChange := round2(fin.margin() * 10)
	return []models.Metric{
		{Label: "Revenue", Value: formatINR(fin.revenue), Change: growth, Status: statusOf(growth)},
		{Label: "Net Profit", Value: formatINR(fin.net()), Change: netChange, Status: statusOf(fin.net())},
		{Label: "Net Margin", Value: fmt.Sprintf("%.1f%%", fin.margin()*100), Change: netChange, Status: statusOf(fin.margin())},
		{Label: "Health Score", Value: fmt.Sprintf("%d/100", p.score), Change: float64(p.score - baseScore), Status: statusOf(float64(p.score - baseScore))},
	}
}

func statements(fin financials, wc models.WorkingCapital) models.Statements {
	net := fin.net()
	cash := math.Max(net*0.5, 0)
	operating := net + wc.Payables - wc.Receivables
	investing := -math.Round(fin.revenue * 0.05)
	financing := -math.Round(debtService(fin))

	return models.Statements{
		PL: []models.StatementRow{
			{Label: "Income", IsHeader: true},
			{Label: "Revenue", Value: fin.revenue},
			{Label: "Expenses", IsHeader: true},
			{Label: "Operating Expenses", Value: fin.expenses},
			{Label: "Net Profit", Value: net},
		},
		BalanceSheet: []models.StatementRow{
			{Label: "Assets", IsHeader: true},
			{Label: "Cash & Equivalents", Value: math.Round(cash)},
			{Label: "Accounts Receivable", Value: wc.Receivables},
			{Label: "Inventory", Value: wc.Inventory},
			{Label: "Liabilities", IsHeader: true},
			{Label: "Accounts Payable", Value: wc.Payables},
			{Label: "Loans", Value: math.Round(fin.loans)},
		},
		CashFlow: []models.StatementRow{
			{Label: "Operating Activities", Value: math.Round(operating)},
			{Label: "Investing Activities", Value: investing},
			{Label: "Financing Activities", Value: financing},
			{Label: "Net Cash Flow", Value: math.Round(operating) + investing + financing},
		},
	}
}

func bookkeeping(p reportParams) models.Bookkeeping {
	var issues []models.Discrepancy
	if p.signals.has("profit") && p.signals.has("loss") {
		issues = append(issues, models.Discrepancy{
			TransactionID: "TXN-001",
			Issue:         "Statement reports both profit and loss",
			Suggestion:    "Reconcile the period totals and separate operating from one-off items",
		})
	}
	if p.fin.expenses > p.fin.revenue {
		issues = append(issues, models.Discrepancy{
			TransactionID: fmt.Sprintf("TXN-%03d", len(issues)+1),
			Issue:         "Expenses exceed revenue",
			Suggestion:    "Verify that capital purchases are not booked as operating expenses",
			Amount:        math.Round(p.fin.expenses - p.fin.revenue),
		})
	}

	tips := []string{
		"Connect your bank feed to auto-categorise transactions",
		"Schedule a monthly GST reconciliation",
	}
	if p.fin.loans > 0 {
		tips = append(tips, "Set up automatic EMI reminders")
	}
	if p.industry == models.IndustryRetail || p.industry == models.IndustryECommerce {
		tips = append(tips, "Sync POS and marketplace sales daily")
	}

	return models.Bookkeeping{
		HealthScore:    clampInt(p.score-5*len(issues), 0, 100),
		Discrepancies:  issues,
		AutomationTips: tips,
	}
}

func optimization(fin financials, wc models.WorkingCapital) []models.CostOptimization {
	areas := []models.CostOptimization{
		{
			Area:            "Operating Expenses",
			CurrentSpend:    math.Round(fin.expenses * 0.4),
			PotentialSaving: math.Round(fin.expenses * 0.4 * 0.08),
			ActionPlan:      "Renegotiate vendor contracts and consolidate suppliers",
		},
		{
			Area:            "Utilities & Overheads",
			CurrentSpend:    math.Round(fin.expenses * 0.1),
			PotentialSaving: math.Round(fin.expenses * 0.1 * 0.12),
			ActionPlan:      "Audit recurring subscriptions and energy usage",
		},
	}
	if fin.loans > 0 {
		areas = append(areas, models.CostOptimization{
			Area:            "Debt Servicing",
			CurrentSpend:    math.Round(debtService(fin)),
			PotentialSaving: math.Round(debtService(fin) * 0.15),
			ActionPlan:      "Refinance high-interest loans under a government-backed scheme",
		})
	}
	if wc.Inventory > 0 {
		areas = append(areas, models.CostOptimization{
			Area:            "Inventory Holding",
			CurrentSpend:    wc.Inventory,
			PotentialSaving: math.Round(wc.Inventory * 0.1),
			ActionPlan:      "Reduce slow-moving stock and move to just-in-time reorders",
		})
	}
	return areas
}

func forecast(fin financials, signals keywordSignals, from time.Time) []models.ForecastPoint {
	inflowGrowth := 0.005
	if signals.has("growth") {
		inflowGrowth = 0.02
	}
	inflow := fin.revenue / 12
	outflow := fin.expenses / 12
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)

	points := make([]models.ForecastPoint, 0, 6)
	for i := 1; i <= 6; i++ {
		inflow *= 1 + inflowGrowth
		outflow *= 1.01
		in, out := math.Round(inflow), math.Round(outflow)
		points = append(points, models.ForecastPoint{
			Month:   start.AddDate(0, i, 0).Format("Jan 2006"),
			Inflow:  in,
			Outflow: out,
			Net:     in - out,
		})
	}
	return points
}

func scenarioRisk(netAfter float64, score int) models.RiskLevel {
	switch {
	case netAfter < 0:
		return models.RiskHigh
	case score >= 70:
		return models.RiskLow
	default:
		return models.RiskMedium
	}
}

func scenarios(fin financials, score int) []models.Scenario {
	net := fin.net()
	dip := -math.Round(fin.revenue * 0.10)
	spike := -math.Round(fin.expenses * 0.15)
	expand := math.Round(fin.revenue*0.20 - fin.expenses*0.15)

	expandRisk := models.RiskMedium
	if net+expand < 0 {
		expandRisk = models.RiskHigh
	}
	return []models.Scenario{
		{
			Label:             "Revenue Dip 10%",
			Description:       "Sales fall by 10% while costs stay flat",
			ImpactOnNetProfit: dip,
			RiskLevel:         scenarioRisk(net+dip, score),
		},
		{
			Label:             "Cost Increase 15%",
			Description:       "Input and operating costs rise by 15%",
			ImpactOnNetProfit: spike,
			RiskLevel:         scenarioRisk(net+spike, score),
		},
		{
			Label:             "Expansion 20%",
			Description:       "Revenue grows 20% with a 15% increase in costs",
			ImpactOnNetProfit: expand,
			RiskLevel:         expandRisk,
		},
	}
}

// nextFilingDate is the GSTR-3B due date: the 20th of the following month.
func nextFilingDate(from time.Time) string {
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, 19).Format("2006-01-02")
}

func taxCompliance(p reportParams) models.TaxCompliance {
	taxScore := clampInt(p.score+10, 0, 100)
	status := models.ComplianceFailing
	switch {
	case taxScore >= 70:
		status = models.ComplianceOK
	case taxScore >= 45:
		status = models.ComplianceAtRisk
	}

	deductions := []string{"Section 80C investments", industryDeductions[p.industry]}
	if p.fin.loans > 0 {
		deductions = append(deductions, "Interest on business loans")
	}

	return models.TaxCompliance{
		Status:               status,
		Score:                taxScore,
		NextFilingDate:       nextFilingDate(p.timestamp),
		GSTCreditsIdentified: math.Round(p.fin.expenses * 0.018),
		PotentialDeductions:  deductions,
		AuditRisk:            100 - taxScore,
	}
}

func benchmarking(p reportParams, wc models.WorkingCapital) models.Benchmarking {
	avg := industryAverages[p.industry]
	percentile := clampInt(50+(p.score-avg)*3/2, 1, 99)
	fin := p.fin

	liquidity := 0.0
	if fin.expenses > 0 {
		liquidity = math.Min(fin.revenue/fin.expenses*50, 100)
	}
	growth := 45.0
	if p.signals.has("growth") {
		growth = 75
	}
	leverage := 100.0
	if fin.revenue > 0 {
		leverage = math.Max(100-fin.loans/fin.revenue*100, 0)
	}
	efficiency := 100 - math.Min(float64(wc.CycleDays), 100)
	industry := float64(avg)

	return models.Benchmarking{
		IndustryAverage: avg,
		Percentile:      percentile,
		RadarData: []models.RadarPoint{
			{Category: "Liquidity", Business: round2(liquidity), Industry: industry},
			{Category: "Profitability", Business: round2(math.Max(math.Min(fin.margin()*200, 100), 0)), Industry: industry},
			{Category: "Growth", Business: growth, Industry: industry},
			{Category: "Leverage", Business: round2(leverage), Industry: industry},
			{Category: "Efficiency", Business: round2(efficiency), Industry: industry},
		},
	}
}

func workingCapital(fin financials, industry models.Industry) models.WorkingCapital {
	wc := models.WorkingCapital{
		Receivables: fin.receivables,
		Payables:    fin.payables,
		Inventory:   fin.inventory,
		BurnRate:    math.Round(fin.expenses / 12),
	}
	if wc.Receivables == 0 {
		wc.Receivables = math.Round(fin.revenue * 0.12)
	}
	if wc.Payables == 0 {
		wc.Payables = math.Round(fin.expenses * 0.10)
	}
	if wc.Inventory == 0 {
		wc.Inventory = math.Round(fin.revenue * inventoryRatios[industry])
	}

	days := 0.0
	if fin.revenue > 0 {
		days += wc.Receivables / fin.revenue * 365
	}
	if fin.expenses > 0 {
		days += (wc.Inventory - wc.Payables) / fin.expenses * 365
	}
	wc.CycleDays = int(math.Max(math.Round(days), 0))
	return wc
}

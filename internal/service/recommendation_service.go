package service

import (
	"context"

	"finhealth/internal/models"
	"finhealth/internal/repository"

	"go.uber.org/zap"
)

var gradeRank = map[models.Grade]int{
	models.GradeD:     0,
	models.GradeC:     1,
	models.GradeB:     2,
	models.GradeA:     3,
	models.GradeAPlus: 4,
}

type RecommendationService struct {
	products *repository.ProductRepository
	topK     int
	logger   *zap.Logger
}

func NewRecommendationService(products *repository.ProductRepository, topK int, logger *zap.Logger) *RecommendationService {
	if topK <= 0 {
		topK = 3
	}
	return &RecommendationService{
		products: products,
		topK:     topK,
		logger:   logger,
	}
}

// Suggest searches the product catalog with terms derived from the report.
func (s *RecommendationService) Suggest(ctx context.Context, r *models.AssessmentResult) []models.ProductSuggestion {
	if r == nil || r.Empty {
		return []models.ProductSuggestion{}
	}

	terms := s.QueryTerms(r)
	hits := s.products.SimpleTextSearch(ctx, terms, r.Industry, 0)

	suggestions := make([]models.ProductSuggestion, 0, s.topK)
	for _, h := range hits {
		if h.Product.MinGrade != "" && gradeRank[r.CreditRisk.Grade] < gradeRank[h.Product.MinGrade] {
			continue
		}
		suggestions = append(suggestions, models.ProductSuggestion{
			ProductName:    h.Product.Name,
			Provider:       h.Product.Provider,
			Benefit:        h.Product.Benefit,
			RelevanceScore: clampInt(40+20*h.Hits, 0, 100),
		})
		if len(suggestions) == s.topK {
			break
		}
	}

	s.logger.Info("Recommendations generated",
		zap.String("assessment_id", r.ID),
		zap.Strings("terms", terms),
		zap.Int("count", len(suggestions)),
	)
	return suggestions
}

// QueryTerms turns the weak spots of a report into catalog search terms.
func (s *RecommendationService) QueryTerms(r *models.AssessmentResult) []string {
	var terms []string
	cr := r.CreditRisk

	if cr.LiquidityRatio < 1.3 {
		terms = append(terms, "liquidity", "cash")
	}
	if cr.LoanObligations > 0 {
		terms = append(terms, "debt", "loan")
	}
	if r.Score < 55 {
		terms = append(terms, "risk", "collateral")
	}
	for _, d := range cr.RiskDrivers {
		if d == "Reported operating losses" {
			terms = append(terms, "loss", "protection")
		}
	}
	if gradeRank[cr.Grade] >= gradeRank[models.GradeA] {
		terms = append(terms, "growth", "expansion")
	}
	if r.WorkingCapital.CycleDays > 45 {
		terms = append(terms, "receivables", "cycle")
	}
	if r.TaxCompliance.Status != models.ComplianceOK {
		terms = append(terms, "gst", "compliance")
	}
	if len(r.Bookkeeping.Discrepancies) > 0 {
		terms = append(terms, "bookkeeping", "automation")
	}
	if len(terms) == 0 {
		terms = []string{"working capital", "growth"}
	}
	return terms
}

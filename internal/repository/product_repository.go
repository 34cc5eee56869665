package repository

import (
	"context"
	"sort"
	"strings"

	"finhealth/internal/models"

	"go.uber.org/zap"
)

// ScoredProduct is a catalog hit with the number of matched query terms.
type ScoredProduct struct {
	Product *models.Product
	Hits    int
}

// ProductRepository is the knowledge base of financial products that the
// recommendation step searches.
type ProductRepository struct {
	products []*models.Product
	logger   *zap.Logger
}

func NewProductRepository(products []*models.Product, logger *zap.Logger) *ProductRepository {
	if products == nil {
		products = DefaultProducts()
	}
	return &ProductRepository{
		products: products,
		logger:   logger,
	}
}

func (r *ProductRepository) All() []*models.Product {
	return r.products
}

// SimpleTextSearch ranks products by how many query terms appear in their
// tags, name or benefit text. Products restricted to other industries are
// skipped. Ties keep catalog order.
func (r *ProductRepository) SimpleTextSearch(_ context.Context, terms []string, industry models.Industry, topK int) []ScoredProduct {
	var results []ScoredProduct
	for _, p := range r.products {
		if !fitsIndustry(p, industry) {
			continue
		}
		haystack := strings.ToLower(p.Name + " " + p.Benefit + " " + strings.Join(p.Tags, " "))
		hits := 0
		for _, term := range terms {
			if term != "" && strings.Contains(haystack, strings.ToLower(term)) {
				hits++
			}
		}
		if hits > 0 {
			results = append(results, ScoredProduct{Product: p, Hits: hits})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Hits > results[j].Hits })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	r.logger.Debug("Product search completed",
		zap.Strings("terms", terms),
		zap.Int("results", len(results)),
	)
	return results
}

func fitsIndustry(p *models.Product, industry models.Industry) bool {
	if len(p.Industries) == 0 {
		return true
	}
	for _, i := range p.Industries {
		if i == industry {
			return true
		}
	}
	return false
}

// DefaultProducts is the built-in catalog.
func DefaultProducts() []*models.Product {
	return []*models.Product{
		{
			ID: "wc-line", Type: models.ProductTypeCredit, Name: "Working Capital Line", Provider: "HDFC Bank",
			Benefit: "Revolving credit sized to receivables, interest only on drawn amount",
			Tags:    []string{"liquidity", "receivables", "cash", "working capital", "growth"},
		},
		{
			ID: "mudra", Type: models.ProductTypeScheme, Name: "PM Mudra Loan (Kishore)", Provider: "SIDBI",
			Benefit: "Collateral-free term loan up to 5 lakh for small enterprises",
			Tags:    []string{"debt", "loan", "expansion", "collateral"},
		},
		{
			ID: "cgtmse", Type: models.ProductTypeScheme, Name: "CGTMSE Credit Guarantee", Provider: "CGTMSE",
			Benefit: "Government guarantee that lowers collateral demands on MSME credit",
			Tags:    []string{"loan", "debt", "risk", "collateral"},
		},
		{
			ID: "invoice-discount", Type: models.ProductTypeCredit, Name: "TReDS Invoice Discounting", Provider: "RXIL",
			Benefit: "Sell approved invoices to unlock cash tied up in receivables",
			Tags:    []string{"receivables", "cash", "liquidity", "cycle"},
		},
		{
			ID: "equipment", Type: models.ProductTypeCredit, Name: "Machinery Term Loan", Provider: "SBI",
			Benefit:    "Asset-backed financing for plant and machinery upgrades",
			Tags:       []string{"growth", "expansion", "capex", "loan"},
			Industries: []models.Industry{models.IndustryManufacturing, models.IndustryLogistics},
		},
		{
			ID: "kcc", Type: models.ProductTypeScheme, Name: "Kisan Credit Card", Provider: "NABARD",
			Benefit:    "Seasonal crop and input financing at subsidised interest",
			Tags:       []string{"seasonal", "liquidity", "loan"},
			Industries: []models.Industry{models.IndustryAgriculture},
		},
		{
			ID: "pos-credit", Type: models.ProductTypeCredit, Name: "Merchant Cash Advance", Provider: "Razorpay Capital",
			Benefit:    "Repay from daily card settlements, sized to sales volume",
			Tags:       []string{"revenue", "sales", "growth", "cash"},
			Industries: []models.Industry{models.IndustryRetail, models.IndustryECommerce, models.IndustryServices},
		},
		{
			ID: "keyman", Type: models.ProductTypeInsurance, Name: "Business Interruption Cover", Provider: "ICICI Lombard",
			Benefit: "Protects profit against forced shutdowns and supply shocks",
			Tags:    []string{"risk", "loss", "profit", "protection"},
		},
		{
			ID: "accounting", Type: models.ProductTypeSoftware, Name: "Automated Bookkeeping Suite", Provider: "Zoho Books",
			Benefit: "Bank feeds, GST-ready invoicing and reconciliation in one place",
			Tags:    []string{"bookkeeping", "gst", "compliance", "automation", "expenses"},
		},
		{
			ID: "gst-od", Type: models.ProductTypeCredit, Name: "GST-based Overdraft", Provider: "Axis Bank",
			Benefit: "Overdraft limit computed from filed GST returns, no balance sheet needed",
			Tags:    []string{"gst", "compliance", "liquidity", "debt"},
		},
	}
}

package models

type ProductType string

const (
	ProductTypeCredit    ProductType = "credit"
	ProductTypeInsurance ProductType = "insurance"
	ProductTypeSoftware  ProductType = "software"
	ProductTypeScheme    ProductType = "scheme"
)

// Product is one entry of the financial-product knowledge base used for
// recommendations. Tags and Industries drive matching; an empty Industries
// list means the product fits every industry.
type Product struct {
	ID         string      `json:"id"`
	Type       ProductType `json:"type"`
	Name       string      `json:"name"`
	Provider   string      `json:"provider"`
	Benefit    string      `json:"benefit"`
	Tags       []string    `json:"tags"`
	Industries []Industry  `json:"industries,omitempty"`
	MinGrade   Grade       `json:"minGrade,omitempty"`
}

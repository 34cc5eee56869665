package models

// IntegrationStatus is the persisted toggle state of one connector.
type IntegrationStatus struct {
	Connected bool   `json:"connected"`
	LastSync  string `json:"lastSync,omitempty"`
}

// Integration describes a connector shown on the settings page. Toggling it
// only flips the flag; no external system is contacted.
type Integration struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	IntegrationStatus
}

var IntegrationCatalog = []Integration{
	{ID: "stripe", Name: "Stripe", Category: "Payments"},
	{ID: "hdfc", Name: "HDFC Bank", Category: "Banking"},
	{ID: "gstn", Name: "GST Network", Category: "Compliance"},
}

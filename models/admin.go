package models

// LegalSection is one published policy document.
type LegalSection struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Audience string `json:"audience"` // customer, provider or both
	Version  string `json:"version"`
}

const (
	AudienceCustomer = "customer"
	AudienceProvider = "provider"
	AudienceBoth     = "both"
)

package domain

import "time"

// Product is a catalog item as stored by the ingestion pipeline. Candidates
// returned by strategies are projections of products; the engine itself never
// reads the catalog directly.
type Product struct {
	Key           string            `json:"key"`
	Name          string            `json:"name"`
	ComponentType string            `json:"component_type"`
	Category      string            `json:"category,omitempty"`
	Description   string            `json:"description,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`

	// CompatibleWith lists product keys this item is declared compatible with,
	// as read from the catalog workbook. Materialized as graph relations.
	CompatibleWith []string `json:"compatible_with,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCandidate projects the product into the search data model.
func (p Product) ToCandidate() Candidate {
	return Candidate{
		Key:         p.Key,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Attributes:  p.Attributes,
	}
}

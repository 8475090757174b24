// internal/models/product.go
package models

// Product is the catalog entity generation requests target. Only the
// fields feeding prompt construction are required; everything else is
// carried through from the catalog document.
type Product struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Category   string            `json:"category,omitempty"`
	Materials  []string          `json:"materials,omitempty"`
	Region     string            `json:"region,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Images     []string          `json:"images,omitempty"`
	ArtisanID  string            `json:"artisan_id,omitempty"`
	BaseCost   float64           `json:"base_cost,omitempty"`
	Provenance map[string]string `json:"provenance,omitempty"`
	Popularity int               `json:"popularity,omitempty"`
	IsActive   bool              `json:"is_active"`
}

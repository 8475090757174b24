// internal/workers/marketing/asset-generate/models.go
package assetgenerate

type Input struct {
	ProductID string   `json:"product_id"`
	Lang      string   `json:"lang"`
	Channel   string   `json:"channel"`
	ExtraTags []string `json:"extra_tags,omitempty"`
}

// internal/models/story.go
package models

import "time"

// Story is one generated product story, keyed "{product_id}_{lang}".
type Story struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Lang       string    `json:"lang"`
	Tone       string    `json:"tone"`
	ContentRef string    `json:"content_ref"`
	URL        string    `json:"url,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Version    int       `json:"version"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// StoryKey builds the deterministic document id for a (product, lang)
// pair. Recomputing the same inputs always yields the same key, which is
// what makes duplicate deliveries overwrite instead of duplicate.
func StoryKey(productID, lang string) string {
	return productID + "_" + lang
}

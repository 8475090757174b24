// internal/models/marketing.go
package models

import "time"

// MarketingAsset is one channel-scoped social post, keyed
// "{product_id}_{lang}_{channel}".
type MarketingAsset struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	Lang        string    `json:"lang"`
	Channel     string    `json:"channel"`
	PostText    string    `json:"post_text"`
	Hashtags    []string  `json:"hashtags"`
	BestTimeISO string    `json:"best_time_iso"`
	ImageURI    string    `json:"image_uri,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Version     int       `json:"version"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// MarketingKey builds the deterministic document id for a
// (product, lang, channel) triple.
func MarketingKey(productID, lang, channel string) string {
	return productID + "_" + lang + "_" + channel
}

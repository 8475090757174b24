// internal/workers/content/story-generate/models.go
package storygenerate

type Input struct {
	ProductID string   `json:"product_id"`
	Langs     []string `json:"langs"`
	Tone      string   `json:"tone"`
}

// ContentPointer references one persisted story. Text is included so a
// synchronous caller can render immediately without a second fetch.
type ContentPointer struct {
	Path string            `json:"path"`
	Meta map[string]string `json:"meta"`
	Text string            `json:"text,omitempty"`
	URI  string            `json:"gcs_uri,omitempty"`
	URL  string            `json:"url,omitempty"`
}

type Output struct {
	ProductID string            `json:"product_id"`
	Pointers  []*ContentPointer `json:"pointers"`
}

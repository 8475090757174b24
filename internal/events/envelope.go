// Package events defines the wire contract of the pipeline: the event
// envelope, the inbound request variants, and the dual-shape decoder that
// turns transport bytes into typed requests.
package events

import (
	"encoding/json"
	"strings"
	"time"

	"artisan-workers/internal/common/config"

	"github.com/google/uuid"
)

// Event type names. Inbound types end in "requested", outbound in a past
// participle.
const (
	TypeContentRequested   = "content.requested"
	TypeContentGenerated   = "content.generated"
	TypeMarketingRequested = "marketing.asset.requested"
	TypeMarketingCreated   = "marketing.asset.created"
)

// Envelope is the canonical published event shape.
type Envelope struct {
	EventID        string          `json:"event_id"`
	OccurredAt     string          `json:"occurred_at"`
	Type           string          `json:"type"`
	Source         string          `json:"source"`
	SchemaVersion  int             `json:"schema_version"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Data           json.RawMessage `json:"data"`
}

// NewEvent builds an envelope around data with a fresh event id and a UTC
// occurrence timestamp.
func NewEvent(eventType, source string, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		EventID:       uuid.New().String(),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
		Type:          eventType,
		Source:        source,
		SchemaVersion: 1,
		Data:          raw,
	}, nil
}

// TopicFor routes an event type to a topic by prefix convention. An
// explicit override wins over the convention.
func TopicFor(eventType string, topics config.TopicsConfig, override string) string {
	if override != "" {
		return override
	}
	switch {
	case eventType == TypeContentRequested:
		return topics.ContentRequested
	case eventType == TypeMarketingRequested:
		return topics.MarketingRequested
	case eventType == TypeMarketingCreated:
		return topics.MarketingCreated
	case strings.HasPrefix(eventType, "marketing."):
		return topics.MarketingCreated
	case eventType == TypeContentGenerated:
		return topics.ContentGenerated
	default:
		return topics.ContentGenerated
	}
}

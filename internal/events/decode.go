package events

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	stderrors "artisan-workers/internal/common/errors"
)

// Marketing channels accepted on marketing.asset.requested events.
const (
	ChannelInstagram = "instagram"
	ChannelFacebook  = "facebook"
	ChannelWhatsApp  = "whatsapp"
	ChannelX         = "x"
	ChannelYouTube   = "youtube"
)

const (
	DefaultLang = "en"
	DefaultTone = "narrative"
)

// Request is one decoded unit of work. Exactly one variant exists per
// inbound event type.
type Request interface {
	EventType() string
	Entity() string
}

// ContentRequest asks for story text in one or more languages.
type ContentRequest struct {
	Type      string   `json:"type"`
	ProductID string   `json:"product_id"`
	Langs     []string `json:"langs"`
	Tone      string   `json:"tone"`
}

func (r *ContentRequest) EventType() string { return r.Type }
func (r *ContentRequest) Entity() string    { return r.ProductID }

// MarketingRequest asks for one channel-scoped marketing asset.
type MarketingRequest struct {
	Type      string   `json:"type"`
	ProductID string   `json:"product_id"`
	Lang      string   `json:"lang"`
	Channel   string   `json:"channel"`
	ExtraTags []string `json:"extra_tags,omitempty"`
}

func (r *MarketingRequest) EventType() string { return r.Type }
func (r *MarketingRequest) Entity() string    { return r.ProductID }

// pushWrapper is the transport's native push shape: the payload arrives
// base64-encoded under message.data.
type pushWrapper struct {
	Message struct {
		Data string `json:"data"`
	} `json:"message"`
}

// probe peeks at the parsed object before committing to a variant. When a
// published Envelope arrives, the request fields live under data.
type probe struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode turns raw transport bytes into a typed request. Two wire shapes
// are accepted, tried in order: the JSON payload directly, then a push
// wrapper holding the same JSON base64-encoded. Nothing else is attempted;
// if both fail the raw bytes are preserved in the returned error.
func Decode(raw []byte) (Request, error) {
	req, directErr := decodePayload(raw)
	if directErr == nil {
		return req, nil
	}
	// A StandardError means the bytes parsed but the content is bad.
	// Unwrapping a push wrapper would not change that.
	if _, ok := directErr.(*stderrors.StandardError); ok {
		return nil, directErr
	}

	var wrapper pushWrapper
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Message.Data != "" {
		inner, err := base64.StdEncoding.DecodeString(wrapper.Message.Data)
		if err == nil {
			req, innerErr := decodePayload(inner)
			if innerErr == nil {
				return req, nil
			}
			// Content-level faults from the unwrapped payload stand on
			// their own. Anything else means neither shape decoded.
			if _, ok := innerErr.(*stderrors.StandardError); ok {
				return nil, innerErr
			}
			return nil, stderrors.NewDecodeFailedError(raw, innerErr)
		}
	}

	return nil, stderrors.NewDecodeFailedError(raw, directErr)
}

func decodePayload(raw []byte) (Request, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.Type == "" {
		return nil, fmt.Errorf("missing type field")
	}

	// Envelope form carries the request fields under data.
	body := raw
	if len(p.Data) > 0 && string(p.Data) != "null" {
		body = p.Data
	}

	if err := validatePayload(p.Type, body); err != nil {
		return nil, err
	}

	switch p.Type {
	case TypeContentRequested:
		var req ContentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		req.Type = p.Type
		if len(req.Langs) == 0 {
			req.Langs = []string{DefaultLang}
		}
		if req.Tone == "" {
			req.Tone = DefaultTone
		}
		return &req, nil

	case TypeMarketingRequested:
		var req MarketingRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		req.Type = p.Type
		if req.Lang == "" {
			req.Lang = DefaultLang
		}
		return &req, nil

	default:
		return nil, stderrors.NewUnsupportedEventTypeError(p.Type)
	}
}

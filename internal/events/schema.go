package events

import (
	"encoding/json"
	"strings"

	stderrors "artisan-workers/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

var payloadSchemas = map[string]map[string]interface{}{
	TypeContentRequested: {
		"type":     "object",
		"required": []interface{}{"product_id"},
		"properties": map[string]interface{}{
			"product_id": map[string]interface{}{"type": "string", "minLength": 1},
			"langs": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string", "minLength": 1},
			},
			"tone": map[string]interface{}{"type": "string"},
		},
	},
	TypeMarketingRequested: {
		"type":     "object",
		"required": []interface{}{"product_id", "channel"},
		"properties": map[string]interface{}{
			"product_id": map[string]interface{}{"type": "string", "minLength": 1},
			"lang":       map[string]interface{}{"type": "string"},
			"channel": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{ChannelInstagram, ChannelFacebook, ChannelWhatsApp, ChannelX, ChannelYouTube},
			},
			"extra_tags": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	},
}

// validatePayload checks the request body against the schema registered
// for its event type. Types without a schema pass through.
func validatePayload(eventType string, body []byte) error {
	schemaMap, exists := payloadSchemas[eventType]
	if !exists {
		return nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return err
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return stderrors.NewSchemaValidationError(eventType, err.Error())
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return stderrors.NewSchemaValidationError(eventType, strings.Join(errs, "; "))
	}

	return nil
}

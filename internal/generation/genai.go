package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"artisan-workers/internal/common/config"
	stderrors "artisan-workers/internal/common/errors"
	httpclient "artisan-workers/internal/common/http"
	"artisan-workers/internal/common/logger"

	"artisan-workers/internal/models"
)

const GenAIProviderName = "genai"

// generateContent request/response shapes, trimmed to the fields used.
type genaiRequest struct {
	Contents         []genaiContent        `json:"contents"`
	GenerationConfig genaiGenerationConfig `json:"generationConfig"`
}

type genaiContent struct {
	Parts []genaiPart `json:"parts"`
}

type genaiPart struct {
	Text string `json:"text"`
}

type genaiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type genaiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []genaiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenAIProvider is the API-key based primary provider. It calls the
// generateContent REST endpoint directly.
type GenAIProvider struct {
	config config.GenAIConfig
	client *httpclient.Client
	logger logger.Logger
}

func NewGenAIProvider(cfg config.GenAIConfig, log logger.Logger) *GenAIProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GenAIProvider{
		config: cfg,
		client: httpclient.NewClient(timeout),
		logger: log.WithFields(map[string]interface{}{"provider": GenAIProviderName}),
	}
}

func (p *GenAIProvider) Name() string { return GenAIProviderName }

func (p *GenAIProvider) Attempt(ctx context.Context, task *models.GenerationTask) (string, error) {
	if p.config.APIKey == "" {
		return "", stderrors.NewProviderUnavailableError(GenAIProviderName, nil)
	}

	body, err := json.Marshal(genaiRequest{
		Contents: []genaiContent{{Parts: []genaiPart{{Text: promptFor(task)}}}},
		GenerationConfig: genaiGenerationConfig{
			Temperature:     0.7,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 512,
		},
	})
	if err != nil {
		return "", stderrors.NewProviderUnavailableError(GenAIProviderName, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(p.config.BaseURL, "/"), p.config.Model, p.config.APIKey)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", stderrors.NewProviderUnavailableError(GenAIProviderName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.DoWithContext(ctx, req)
	if err != nil {
		return "", stderrors.NewProviderUnavailableError(GenAIProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", stderrors.NewProviderUnavailableError(GenAIProviderName,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed genaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", stderrors.NewProviderUnavailableError(GenAIProviderName, err)
	}

	text := extractText(candidateParts(parsed))
	if text == "" {
		return "", stderrors.NewProviderUnavailableError(GenAIProviderName,
			errors.New("response had no text content"))
	}
	return text, nil
}

func candidateParts(resp genaiResponse) []genaiPart {
	var parts []genaiPart
	for _, cand := range resp.Candidates {
		parts = append(parts, cand.Content.Parts...)
	}
	return parts
}

func extractText(parts []genaiPart) string {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

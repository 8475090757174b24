package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"artisan-workers/internal/common/config"
	stderrors "artisan-workers/internal/common/errors"
	httpclient "artisan-workers/internal/common/http"
	"artisan-workers/internal/common/logger"

	"artisan-workers/internal/models"
)

const VertexProviderName = "vertex"

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// VertexProvider is the service-identity based secondary provider. It
// authenticates through application default credentials instead of an
// API key, and calls the regional endpoint directly. The wire shapes are
// the same generateContent contract the primary provider uses, with a
// larger output token limit.
type VertexProvider struct {
	config      config.VertexConfig
	client      *httpclient.Client
	logger      logger.Logger
	tokenSource oauth2.TokenSource
}

func NewVertexProvider(cfg config.VertexConfig, log logger.Logger) *VertexProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &VertexProvider{
		config: cfg,
		client: httpclient.NewClient(timeout),
		logger: log.WithFields(map[string]interface{}{"provider": VertexProviderName}),
	}
}

func (p *VertexProvider) Name() string { return VertexProviderName }

func (p *VertexProvider) token(ctx context.Context) (*oauth2.Token, error) {
	if p.tokenSource == nil {
		ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
		if err != nil {
			return nil, err
		}
		p.tokenSource = ts
	}
	return p.tokenSource.Token()
}

func (p *VertexProvider) Attempt(ctx context.Context, task *models.GenerationTask) (string, error) {
	if p.config.Project == "" {
		return "", stderrors.NewProviderUnavailableError(VertexProviderName, nil)
	}

	tok, err := p.token(ctx)
	if err != nil {
		return "", stderrors.NewProviderUnavailableError(VertexProviderName, err)
	}

	body, err := json.Marshal(genaiRequest{
		Contents: []genaiContent{{Parts: []genaiPart{{Text: promptFor(task)}}}},
		GenerationConfig: genaiGenerationConfig{
			Temperature:     0.7,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 1024,
		},
	})
	if err != nil {
		return "", stderrors.NewProviderUnavailableError(VertexProviderName, err)
	}

	url := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		p.config.Location, p.config.Project, p.config.Location, p.config.Model)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", stderrors.NewProviderUnavailableError(VertexProviderName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	tok.SetAuthHeader(req)

	resp, err := p.client.DoWithContext(ctx, req)
	if err != nil {
		return "", stderrors.NewProviderUnavailableError(VertexProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", stderrors.NewProviderUnavailableError(VertexProviderName,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed genaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", stderrors.NewProviderUnavailableError(VertexProviderName, err)
	}

	text := extractText(candidateParts(parsed))
	if text == "" {
		return "", stderrors.NewProviderUnavailableError(VertexProviderName,
			errors.New("response had no text content"))
	}
	return text, nil
}

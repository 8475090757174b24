package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artisan-workers/internal/common/config"
	stderrors "artisan-workers/internal/common/errors"
	"artisan-workers/internal/common/logger"
)

func genaiConfig(baseURL string) config.GenAIConfig {
	return config.GenAIConfig{
		APIKey:         "test-key",
		Model:          "gemini-2.5-pro",
		BaseURL:        baseURL,
		TimeoutSeconds: 5,
	}
}

func TestGenAIAttempt(t *testing.T) {
	var gotBody genaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "# A Story"}, {"text": "Second part."}},
				}},
			},
		})
	}))
	defer server.Close()

	p := NewGenAIProvider(genaiConfig(server.URL), logger.NewTestLogger(t))
	text, err := p.Attempt(context.Background(), testTask())
	require.NoError(t, err)

	assert.Equal(t, "# A Story\nSecond part.", text)
	require.Len(t, gotBody.Contents, 1)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "Sheesham Jewellery Box")
	assert.Equal(t, 0.7, gotBody.GenerationConfig.Temperature)
	assert.Equal(t, 0.95, gotBody.GenerationConfig.TopP)
	assert.Equal(t, 40, gotBody.GenerationConfig.TopK)
	assert.Equal(t, 512, gotBody.GenerationConfig.MaxOutputTokens)
}

func TestGenAIAttemptWithoutKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cfg := genaiConfig(server.URL)
	cfg.APIKey = ""
	p := NewGenAIProvider(cfg, logger.NewTestLogger(t))

	_, err := p.Attempt(context.Background(), testTask())
	require.Error(t, err)
	assert.False(t, called)

	var stdErr *stderrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, stderrors.ErrCodeProviderUnavailable, stdErr.Code)
}

func TestGenAIAttemptNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewGenAIProvider(genaiConfig(server.URL), logger.NewTestLogger(t))
	_, err := p.Attempt(context.Background(), testTask())
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, stderrors.ErrCodeProviderUnavailable, stdErr.Code)
	assert.Contains(t, stdErr.Details, "429")
}

func TestGenAIAttemptEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	p := NewGenAIProvider(genaiConfig(server.URL), logger.NewTestLogger(t))
	_, err := p.Attempt(context.Background(), testTask())
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Contains(t, stdErr.Details, "no text content")
}

func TestGenAIAttemptConnectionRefused(t *testing.T) {
	p := NewGenAIProvider(genaiConfig("http://127.0.0.1:1"), logger.NewTestLogger(t))

	_, err := p.Attempt(context.Background(), testTask())
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, stderrors.ErrCodeProviderUnavailable, stdErr.Code)
}

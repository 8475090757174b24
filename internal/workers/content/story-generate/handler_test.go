package storygenerate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artisan-workers/internal/common/config"
	stderrors "artisan-workers/internal/common/errors"
	"artisan-workers/internal/common/logger"
	"artisan-workers/internal/common/storage"
	"artisan-workers/internal/events"
	"artisan-workers/internal/generation"
	"artisan-workers/internal/repository"
)

type nullPublisher struct{}

func (nullPublisher) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "msg-1", nil
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func testTopics() config.TopicsConfig {
	return config.TopicsConfig{
		ContentRequested: "content.requested",
		ContentGenerated: "content.generated",
	}
}

func newTestHandler(t *testing.T, docs repository.DocumentStore, objects storage.ObjectStore) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	writer := repository.NewAssetWriter(objects, docs, nullPublisher{}, nil, testTopics(), log)
	// No provider credentials configured, so every task degrades to the
	// template fallback.
	orchestrator := generation.NewOrchestrator(generation.NewDefaultChain(config.ProvidersConfig{}, log), log)
	return NewHandler(createTestConfig(), docs, orchestrator, writer, log)
}

func seedProduct(t *testing.T, docs *repository.MemoryStore) {
	t.Helper()
	_, err := docs.SetMerge(context.Background(), repository.CollectionProducts, "SH001", map[string]interface{}{
		"title":     "Sheesham Jewellery Box",
		"materials": []string{"sheesham wood", "brass inlay"},
		"region":    "Saharanpur",
		"is_active": true,
	})
	require.NoError(t, err)
}

func TestExecuteGeneratesOneStoryPerLang(t *testing.T) {
	docs := repository.NewMemoryStore()
	objects := storage.NewMemoryStore("")
	seedProduct(t, docs)
	h := newTestHandler(t, docs, objects)

	output, err := h.Execute(context.Background(), &Input{
		ProductID: "SH001",
		Langs:     []string{"en", "hi"},
		Tone:      "narrative",
	})
	require.NoError(t, err)
	require.Len(t, output.Pointers, 2)

	for _, id := range []string{"SH001_en", "SH001_hi"} {
		doc, err := docs.Get(context.Background(), repository.CollectionStories, id)
		require.NoError(t, err)
		assert.Equal(t, true, doc.Doc["approved"])
		assert.Equal(t, generation.FallbackProviderName, doc.Doc["provider"])
	}

	blob, err := objects.ReadBytes(context.Background(), "content/SH001_hi.md")
	require.NoError(t, err)
	assert.Contains(t, string(blob), "# Sheesham Jewellery Box")
	assert.Contains(t, string(blob), "(hi, narrative)")
}

func TestExecuteDefaults(t *testing.T) {
	docs := repository.NewMemoryStore()
	seedProduct(t, docs)
	h := newTestHandler(t, docs, storage.NewMemoryStore(""))

	output, err := h.Execute(context.Background(), &Input{ProductID: "SH001"})
	require.NoError(t, err)
	require.Len(t, output.Pointers, 1)
	assert.Equal(t, "en", output.Pointers[0].Meta["lang"])
	assert.Equal(t, "narrative", output.Pointers[0].Meta["tone"])
}

func TestExecuteProductNotFound(t *testing.T) {
	h := newTestHandler(t, repository.NewMemoryStore(), storage.NewMemoryStore(""))

	_, err := h.Execute(context.Background(), &Input{ProductID: "missing", Langs: []string{"en"}})
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, stderrors.ErrCodeProductNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecuteIsIdempotent(t *testing.T) {
	docs := repository.NewMemoryStore()
	seedProduct(t, docs)
	h := newTestHandler(t, docs, storage.NewMemoryStore(""))

	input := &Input{ProductID: "SH001", Langs: []string{"en"}, Tone: "narrative"}
	_, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	_, err = h.Execute(context.Background(), input)
	require.NoError(t, err)

	page, err := docs.List(context.Background(), repository.CollectionStories, repository.Query{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestHandleRequest(t *testing.T) {
	docs := repository.NewMemoryStore()
	seedProduct(t, docs)
	h := newTestHandler(t, docs, storage.NewMemoryStore(""))

	err := h.HandleRequest(context.Background(), &events.ContentRequest{
		Type:      events.TypeContentRequested,
		ProductID: "SH001",
		Langs:     []string{"en"},
		Tone:      "poetic",
	})
	require.NoError(t, err)

	doc, err := docs.Get(context.Background(), repository.CollectionStories, "SH001_en")
	require.NoError(t, err)
	assert.Equal(t, "poetic", doc.Doc["tone"])
}

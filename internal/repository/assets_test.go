package repository

import (
	"context"
	"encoding/json"
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
	"artisan-workers/internal/models"
)

type capturingPublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, data []byte, _ map[string]string) (string, error) {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, data)
	if p.err != nil {
		return "", p.err
	}
	return "msg-1", nil
}

type failingObjectStore struct{}

func (failingObjectStore) WriteBytes(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("bucket unreachable")
}
func (failingObjectStore) ReadBytes(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unreachable")
}
func (failingObjectStore) PublicURL(string) string { return "" }

func testTopics() config.TopicsConfig {
	return config.TopicsConfig{
		ContentRequested:   "content.requested",
		ContentGenerated:   "content.generated",
		MarketingRequested: "marketing.requested",
		MarketingCreated:   "marketing.created",
	}
}

func storyResult(text string) *models.GenerationResult {
	return &models.GenerationResult{
		EntityID:     "SH001",
		Variant:      "en",
		Text:         text,
		ProviderUsed: "fallback",
		ProducedAt:   time.Now().UTC(),
	}
}

func TestPersistStory(t *testing.T) {
	objects := storage.NewMemoryStore("")
	docs := NewMemoryStore()
	pub := &capturingPublisher{}
	writer := NewAssetWriter(objects, docs, pub, nil, testTopics(), logger.NewTestLogger(t))

	story, err := writer.PersistStory(context.Background(), storyResult("# A Story"), "narrative")
	require.NoError(t, err)

	assert.Equal(t, "SH001_en", story.ID)
	assert.Equal(t, "mem://content/SH001_en.md", story.ContentRef)
	assert.Equal(t, 1, story.Version)
	assert.True(t, story.Approved)

	blob, err := objects.ReadBytes(context.Background(), "content/SH001_en.md")
	require.NoError(t, err)
	assert.Equal(t, "# A Story", string(blob))

	doc, err := docs.Get(context.Background(), CollectionStories, "SH001_en")
	require.NoError(t, err)
	assert.Equal(t, "SH001", doc.Doc["product_id"])
	assert.Equal(t, true, doc.Doc["approved"])

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "content.generated", pub.topics[0])

	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.Equal(t, events.TypeContentGenerated, env.Type)
	assert.Equal(t, "worker", env.Source)
}

func TestPersistStoryIdempotent(t *testing.T) {
	objects := storage.NewMemoryStore("")
	docs := NewMemoryStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	docs.SetClock(func() time.Time { return clock })

	writer := NewAssetWriter(objects, docs, &capturingPublisher{}, nil, testTopics(), logger.NewTestLogger(t))

	first, err := writer.PersistStory(context.Background(), storyResult("draft one"), "narrative")
	require.NoError(t, err)

	clock = base.Add(time.Minute)
	second, err := writer.PersistStory(context.Background(), storyResult("draft two"), "narrative")
	require.NoError(t, err)

	// Duplicate delivery overwrites the same record and blob.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, 1, objects.Len())

	blob, err := objects.ReadBytes(context.Background(), "content/SH001_en.md")
	require.NoError(t, err)
	assert.Equal(t, "draft two", string(blob))

	page, err := docs.List(context.Background(), CollectionStories, Query{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestPersistStoryPublishFailureSwallowed(t *testing.T) {
	writer := NewAssetWriter(storage.NewMemoryStore(""), NewMemoryStore(), &capturingPublisher{err: errors.New("broker down")}, nil, testTopics(), logger.NewTestLogger(t))

	story, err := writer.PersistStory(context.Background(), storyResult("text"), "narrative")
	require.NoError(t, err)
	assert.NotNil(t, story)
}

func TestPersistStoryBlobFailureIsRetryable(t *testing.T) {
	writer := NewAssetWriter(failingObjectStore{}, NewMemoryStore(), &capturingPublisher{}, nil, testTopics(), logger.NewTestLogger(t))

	_, err := writer.PersistStory(context.Background(), storyResult("text"), "narrative")
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, stderrors.ErrCodePersistFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestPersistMarketing(t *testing.T) {
	objects := storage.NewMemoryStore("")
	docs := NewMemoryStore()
	pub := &capturingPublisher{}
	writer := NewAssetWriter(objects, docs, pub, nil, testTopics(), logger.NewTestLogger(t))

	asset := &models.MarketingAsset{
		ProductID:   "SH001",
		Lang:        "en",
		Channel:     "instagram",
		PostText:    "A handcrafted piece.",
		Hashtags:    []string{"#handmade", "#craft"},
		BestTimeISO: "2026-03-01T13:30:00Z",
		Provider:    "fallback",
	}

	stored, err := writer.PersistMarketing(context.Background(), asset, []byte{0x89, 0x50, 0x4E, 0x47})
	require.NoError(t, err)

	assert.Equal(t, "SH001_en_instagram", stored.ID)
	assert.Equal(t, "mem://marketing/SH001_en_instagram.png", stored.ImageURI)
	assert.True(t, stored.Approved)

	doc, err := docs.Get(context.Background(), CollectionMarketing, "SH001_en_instagram")
	require.NoError(t, err)
	assert.Equal(t, "A handcrafted piece.", doc.Doc["post_text"])
	assert.Equal(t, "mem://marketing/SH001_en_instagram.png", doc.Doc["image_uri"])

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "marketing.created", pub.topics[0])
}

func TestPersistMarketingWithoutImage(t *testing.T) {
	docs := NewMemoryStore()
	writer := NewAssetWriter(storage.NewMemoryStore(""), docs, &capturingPublisher{}, nil, testTopics(), logger.NewTestLogger(t))

	asset := &models.MarketingAsset{ProductID: "SH001", Lang: "en", Channel: "whatsapp", PostText: "p"}
	stored, err := writer.PersistMarketing(context.Background(), asset, nil)
	require.NoError(t, err)
	assert.Empty(t, stored.ImageURI)

	doc, err := docs.Get(context.Background(), CollectionMarketing, stored.ID)
	require.NoError(t, err)
	_, hasImage := doc.Doc["image_uri"]
	assert.False(t, hasImage)
}

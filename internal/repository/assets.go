package repository

import (
	"context"
	"encoding/json"
	"time"

	"artisan-workers/internal/common/aws"
	"artisan-workers/internal/common/config"
	stderrors "artisan-workers/internal/common/errors"
	"artisan-workers/internal/common/logger"
	"artisan-workers/internal/common/metrics"
	"artisan-workers/internal/common/pubsub"
	"artisan-workers/internal/common/storage"
	"artisan-workers/internal/events"
	"artisan-workers/internal/models"
)

// AssetWriter persists generation results. The object-store body is
// written before the document record so the document never references a
// blob that does not exist; the document write is the sole success
// signal. Downstream notification runs after both and is best effort.
type AssetWriter struct {
	objects   storage.ObjectStore
	docs      DocumentStore
	publisher pubsub.Publisher
	notifier  *aws.Notifier
	topics    config.TopicsConfig
	logger    logger.Logger
}

func NewAssetWriter(objects storage.ObjectStore, docs DocumentStore, publisher pubsub.Publisher, notifier *aws.Notifier, topics config.TopicsConfig, log logger.Logger) *AssetWriter {
	return &AssetWriter{
		objects:   objects,
		docs:      docs,
		publisher: publisher,
		notifier:  notifier,
		topics:    topics,
		logger:    log.WithFields(map[string]interface{}{"component": "asset-writer"}),
	}
}

// PersistStory writes one generated story and returns the stored record.
// Calling it again with the same (product, lang) merges into the same
// document.
func (w *AssetWriter) PersistStory(ctx context.Context, res *models.GenerationResult, tone string) (*models.Story, error) {
	key := models.StoryKey(res.EntityID, res.Variant)
	path := "content/" + key + ".md"

	uri, err := w.objects.WriteBytes(ctx, path, []byte(res.Text), "text/markdown; charset=utf-8")
	if err != nil {
		return nil, stderrors.NewPersistFailedError(key, err)
	}
	url := w.objects.PublicURL(path)

	stored, err := w.docs.SetMerge(ctx, CollectionStories, key, map[string]interface{}{
		"product_id":  res.EntityID,
		"lang":        res.Variant,
		"tone":        tone,
		"content_ref": uri,
		"url":         url,
		"provider":    res.ProviderUsed,
		"version":     1,
		"approved":    true,
	})
	if err != nil {
		return nil, err
	}
	metrics.AssetsPersisted.WithLabelValues(CollectionStories).Inc()

	w.notify(ctx, events.TypeContentGenerated, map[string]interface{}{
		"product_id": res.EntityID,
		"lang":       res.Variant,
		"tone":       tone,
		"gcs_path":   path,
		"http_url":   url,
	})

	return &models.Story{
		ID:         key,
		ProductID:  res.EntityID,
		Lang:       res.Variant,
		Tone:       tone,
		ContentRef: uri,
		URL:        url,
		Provider:   res.ProviderUsed,
		Version:    1,
		Approved:   true,
		CreatedAt:  stored.CreatedAt,
		UpdatedAt:  stored.UpdatedAt,
	}, nil
}

// PersistMarketing writes one channel-scoped marketing asset. The image
// bytes, when present, are uploaded before the document write.
func (w *AssetWriter) PersistMarketing(ctx context.Context, asset *models.MarketingAsset, image []byte) (*models.MarketingAsset, error) {
	key := models.MarketingKey(asset.ProductID, asset.Lang, asset.Channel)

	if len(image) > 0 {
		path := "marketing/" + key + ".png"
		uri, err := w.objects.WriteBytes(ctx, path, image, "image/png")
		if err != nil {
			return nil, stderrors.NewPersistFailedError(key, err)
		}
		asset.ImageURI = uri
	}

	doc := map[string]interface{}{
		"product_id":    asset.ProductID,
		"lang":          asset.Lang,
		"channel":       asset.Channel,
		"post_text":     asset.PostText,
		"hashtags":      asset.Hashtags,
		"best_time_iso": asset.BestTimeISO,
		"provider":      asset.Provider,
		"version":       1,
		"approved":      true,
	}
	if asset.ImageURI != "" {
		doc["image_uri"] = asset.ImageURI
	}

	stored, err := w.docs.SetMerge(ctx, CollectionMarketing, key, doc)
	if err != nil {
		return nil, err
	}
	metrics.AssetsPersisted.WithLabelValues(CollectionMarketing).Inc()

	w.notify(ctx, events.TypeMarketingCreated, map[string]interface{}{
		"product_id": asset.ProductID,
		"lang":       asset.Lang,
		"channel":    asset.Channel,
		"doc_id":     key,
	})

	out := *asset
	out.ID = key
	out.Version = 1
	out.Approved = true
	out.CreatedAt = stored.CreatedAt
	out.UpdatedAt = stored.UpdatedAt
	return &out, nil
}

// notify publishes the completion event and fans it out. Failures are
// logged and swallowed: persistence has already succeeded and must not be
// reported as failed because a notification could not be delivered.
func (w *AssetWriter) notify(ctx context.Context, eventType string, data map[string]interface{}) {
	env, err := events.NewEvent(eventType, "worker", data)
	if err != nil {
		w.logger.Error("build completion event failed", map[string]interface{}{
			"error": err,
			"type":  eventType,
		})
		return
	}

	raw, err := json.Marshal(env)
	if err != nil {
		w.logger.Error("marshal completion event failed", map[string]interface{}{
			"error": err,
			"type":  eventType,
		})
		return
	}

	topic := events.TopicFor(eventType, w.topics, "")
	if w.publisher != nil {
		publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := w.publisher.Publish(publishCtx, topic, raw, map[string]string{"event_type": eventType}); err != nil {
			notifyErr := stderrors.NewNotifyFailedError(topic, err)
			w.logger.Warn("completion publish failed", map[string]interface{}{
				"error": notifyErr,
				"topic": topic,
			})
		}
	}

	w.notifier.PublishCompletion(ctx, eventType, env)
}

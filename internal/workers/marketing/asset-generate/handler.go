// internal/workers/marketing/asset-generate/handler.go
package assetgenerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stderrors "artisan-workers/internal/common/errors"
	"artisan-workers/internal/common/logger"
	"artisan-workers/internal/events"
	"artisan-workers/internal/generation"
	"artisan-workers/internal/models"
	"artisan-workers/internal/repository"
)

const (
	TaskType = "asset-generate"
)

// Handler builds one channel-scoped marketing asset: generated caption,
// suggested hashtags, a posting-time suggestion, and a placeholder image.
type Handler struct {
	config       *Config
	docs         repository.DocumentStore
	orchestrator *generation.Orchestrator
	writer       *repository.AssetWriter
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(cfg *Config, docs repository.DocumentStore, orchestrator *generation.Orchestrator, writer *repository.AssetWriter, log logger.Logger) *Handler {
	return &Handler{
		config:       cfg,
		docs:         docs,
		orchestrator: orchestrator,
		writer:       writer,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// HandleRequest is the event-path entry point.
func (h *Handler) HandleRequest(ctx context.Context, req *events.MarketingRequest) error {
	_, err := h.Execute(ctx, &Input{
		ProductID: req.ProductID,
		Lang:      req.Lang,
		Channel:   req.Channel,
		ExtraTags: req.ExtraTags,
	})
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.MarketingAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	h.logger.Info("processing request", map[string]interface{}{
		"productId": input.ProductID,
		"lang":      input.Lang,
		"channel":   input.Channel,
	})

	product, err := h.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	lang := input.Lang
	if lang == "" {
		lang = events.DefaultLang
	}

	task := &models.GenerationTask{Product: product, Lang: lang, Channel: input.Channel}
	res := h.orchestrator.Generate(ctx, task)

	asset := &models.MarketingAsset{
		ProductID:   input.ProductID,
		Lang:        lang,
		Channel:     input.Channel,
		PostText:    res.Text,
		Hashtags:    SuggestHashtags(input.Channel, input.ExtraTags),
		BestTimeISO: SuggestBestTime(h.now()),
		Provider:    res.ProviderUsed,
	}

	stored, err := h.writer.PersistMarketing(ctx, asset, placeholderImage)
	if err != nil {
		return nil, err
	}

	h.logger.Info("marketing asset persisted", map[string]interface{}{
		"id":       stored.ID,
		"provider": stored.Provider,
	})
	return stored, nil
}

func (h *Handler) loadProduct(ctx context.Context, productID string) (*models.Product, error) {
	doc, err := h.docs.Get(ctx, repository.CollectionProducts, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, stderrors.NewProductNotFoundError(productID)
	}
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc.Doc)
	if err != nil {
		return nil, fmt.Errorf("marshal product %s: %w", productID, err)
	}
	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product %s: %w", productID, err)
	}
	product.ID = productID
	return &product, nil
}

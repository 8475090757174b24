// internal/workers/content/story-generate/handler.go
package storygenerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	stderrors "artisan-workers/internal/common/errors"
	"artisan-workers/internal/common/logger"
	"artisan-workers/internal/events"
	"artisan-workers/internal/generation"
	"artisan-workers/internal/models"
	"artisan-workers/internal/repository"
)

const (
	TaskType = "story-generate"
)

// Handler generates one story per requested language and persists each
// under its deterministic key. Languages are processed sequentially; a
// persistence failure aborts the remainder so a redelivery can finish the
// request, overwriting already-written languages idempotently.
type Handler struct {
	config       *Config
	docs         repository.DocumentStore
	orchestrator *generation.Orchestrator
	writer       *repository.AssetWriter
	logger       logger.Logger
}

func NewHandler(cfg *Config, docs repository.DocumentStore, orchestrator *generation.Orchestrator, writer *repository.AssetWriter, log logger.Logger) *Handler {
	return &Handler{
		config:       cfg,
		docs:         docs,
		orchestrator: orchestrator,
		writer:       writer,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// HandleRequest is the event-path entry point.
func (h *Handler) HandleRequest(ctx context.Context, req *events.ContentRequest) error {
	_, err := h.Execute(ctx, &Input{
		ProductID: req.ProductID,
		Langs:     req.Langs,
		Tone:      req.Tone,
	})
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	h.logger.Info("processing request", map[string]interface{}{
		"productId": input.ProductID,
		"langs":     input.Langs,
		"tone":      input.Tone,
	})

	product, err := h.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	langs := input.Langs
	if len(langs) == 0 {
		langs = []string{events.DefaultLang}
	}
	tone := input.Tone
	if tone == "" {
		tone = events.DefaultTone
	}

	output := &Output{ProductID: input.ProductID}
	for _, lang := range langs {
		task := &models.GenerationTask{Product: product, Lang: lang, Tone: tone}
		res := h.orchestrator.Generate(ctx, task)

		story, err := h.writer.PersistStory(ctx, res, tone)
		if err != nil {
			return nil, err
		}

		h.logger.Info("story persisted", map[string]interface{}{
			"id":       story.ID,
			"provider": story.Provider,
		})

		output.Pointers = append(output.Pointers, &ContentPointer{
			Path: "content/" + story.ID + ".md",
			Meta: map[string]string{"lang": lang, "tone": tone},
			Text: res.Text,
			URI:  story.ContentRef,
			URL:  story.URL,
		})
	}

	return output, nil
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

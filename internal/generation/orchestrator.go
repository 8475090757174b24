package generation

import (
	"context"
	"time"

	"artisan-workers/internal/common/config"
	"artisan-workers/internal/common/logger"
	"artisan-workers/internal/common/metrics"
	"artisan-workers/internal/models"
)

// Orchestrator runs the fallback chain for one task at a time. Providers
// are attempted strictly in order; an attempt's error is logged and the
// next provider is tried. The template provider terminates the chain, so
// Generate always returns a result.
type Orchestrator struct {
	providers []Provider
	fallback  *FallbackProvider
	logger    logger.Logger
}

func NewOrchestrator(providers []Provider, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		fallback:  NewFallbackProvider(),
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// NewDefaultChain builds the standard provider order: API-key provider,
// then service-identity provider. The template fallback is owned by the
// orchestrator itself and needs no registration.
func NewDefaultChain(providers config.ProvidersConfig, log logger.Logger) []Provider {
	return []Provider{
		NewGenAIProvider(providers.GenAI, log),
		NewVertexProvider(providers.Vertex, log),
	}
}

func (o *Orchestrator) Generate(ctx context.Context, task *models.GenerationTask) *models.GenerationResult {
	variant := task.Lang
	if task.Channel != "" {
		variant = task.Lang + "_" + task.Channel
	}

	for _, provider := range o.providers {
		text, err := provider.Attempt(ctx, task)
		if err != nil {
			metrics.GenerationAttempts.WithLabelValues(provider.Name(), "error").Inc()
			o.logger.Warn("provider attempt failed", map[string]interface{}{
				"provider": provider.Name(),
				"entityId": task.Product.ID,
				"variant":  variant,
				"error":    err,
			})
			continue
		}
		metrics.GenerationAttempts.WithLabelValues(provider.Name(), "ok").Inc()
		return o.result(task, text, provider.Name())
	}

	// Template fill from the product's own fields; cannot fail.
	text, _ := o.fallback.Attempt(ctx, task)
	metrics.GenerationAttempts.WithLabelValues(o.fallback.Name(), "ok").Inc()
	return o.result(task, text, o.fallback.Name())
}

func (o *Orchestrator) result(task *models.GenerationTask, text, provider string) *models.GenerationResult {
	return &models.GenerationResult{
		EntityID:     task.Product.ID,
		Variant:      task.Lang,
		Text:         text,
		ProviderUsed: provider,
		ProducedAt:   time.Now().UTC(),
	}
}

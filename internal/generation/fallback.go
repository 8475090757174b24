package generation

import (
	"context"
	"fmt"

	"artisan-workers/internal/models"
)

const FallbackProviderName = "fallback"

// FallbackProvider fills a template from the product's own fields. It
// makes no external call and cannot fail, which is what makes the chain
// total.
type FallbackProvider struct{}

func NewFallbackProvider() *FallbackProvider { return &FallbackProvider{} }

func (f *FallbackProvider) Name() string { return FallbackProviderName }

func (f *FallbackProvider) Attempt(_ context.Context, task *models.GenerationTask) (string, error) {
	if task.Channel != "" {
		return f.caption(task), nil
	}
	return f.story(task), nil
}

func (f *FallbackProvider) story(task *models.GenerationTask) string {
	p := task.Product
	return fmt.Sprintf(
		"# %s\n\n(%s, %s)\n\nMaterials: %s\nRegion: %s\n\n_Placeholder story generated without a model provider._",
		titleLine(p), task.Lang, task.Tone, materialsLine(p), regionLine(p),
	)
}

func (f *FallbackProvider) caption(task *models.GenerationTask) string {
	p := task.Product
	return fmt.Sprintf(
		"%s, handcrafted with love.\nMaterials: %s. Region: %s.\nDiscover the story behind this piece and support local artisans. (lang=%s, channel=%s)",
		titleLine(p), materialsLine(p), regionLine(p), task.Lang, task.Channel,
	)
}

// Package generation runs the provider fallback chain that turns a
// generation task into text. The chain degrades gracefully: a template
// provider sits at the end, so generation as a whole never fails.
package generation

import (
	"context"

	"artisan-workers/internal/models"
)

// Provider is one generation strategy. An attempt either returns text or
// an error meaning "try the next provider"; errors never escape the
// orchestrator.
type Provider interface {
	Name() string
	Attempt(ctx context.Context, task *models.GenerationTask) (string, error)
}

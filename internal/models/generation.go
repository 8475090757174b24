// internal/models/generation.go
package models

import "time"

// GenerationTask is one (entity, variant) unit of generation work. Tasks
// are created per request, consumed once, and never persisted.
type GenerationTask struct {
	Product *Product
	Lang    string
	Tone    string
	Channel string
}

// GenerationResult is the outcome of exactly one successful provider
// attempt for a task.
type GenerationResult struct {
	EntityID     string
	Variant      string
	Text         string
	ProviderUsed string
	ProducedAt   time.Time
}

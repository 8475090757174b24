// Package repository implements the document store: deterministic-key
// merge-upserts and keyset-paginated listing.
package repository

import (
	"context"
	"errors"
	"time"
)

// Collection names.
const (
	CollectionProducts  = "products"
	CollectionStories   = "stories"
	CollectionMarketing = "marketing_assets"
)

// ErrNotFound is returned by Get when no document has the given id.
var ErrNotFound = errors.New("document not found")

// Document is one stored record with its server-assigned timestamps.
type Document struct {
	ID        string                 `json:"id"`
	Doc       map[string]interface{} `json:"doc"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Query shapes one listing call.
type Query struct {
	// Filter restricts results to documents whose field equals the value.
	// Only top-level scalar fields are matched.
	Filter map[string]string
	// Limit is clamped to [1, 100]; zero means the default page size.
	Limit int
	// Cursor resumes a previous listing. Empty starts from the top.
	Cursor string
}

// Page is one listing result. Next is empty when the scan is exhausted.
type Page struct {
	Items []Document `json:"items"`
	Next  string     `json:"next,omitempty"`
}

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// DocumentStore is the persistence contract shared by the Postgres
// implementation and the in-memory one used in tests.
//
// SetMerge is a merge-upsert: fields present in doc are set, existing
// fields absent from doc are preserved, updated_at is refreshed, and
// created_at is assigned only on first write. Writing the same id twice
// never produces a second record.
//
// List orders by updated_at descending with id ascending as tie-break and
// resumes strictly after the cursor position.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	SetMerge(ctx context.Context, collection, id string, doc map[string]interface{}) (*Document, error)
	List(ctx context.Context, collection string, q Query) (*Page, error)
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory DocumentStore with the same merge and
// ordering semantics as the Postgres one. Used in tests and development.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
	nowFn       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*Document),
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source. Test helper.
func (m *MemoryStore) SetClock(fn func() time.Time) {
	m.nowFn = fn
}

func (m *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc), nil
}

func (m *MemoryStore) SetMerge(_ context.Context, collection, id string, doc map[string]interface{}) (*Document, error) {
	normalized, err := normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s/%s: %w", collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collection]
	if !ok {
		col = make(map[string]*Document)
		m.collections[collection] = col
	}

	now := m.nowFn()
	existing, ok := col[id]
	if !ok {
		col[id] = &Document{ID: id, Doc: normalized, CreatedAt: now, UpdatedAt: now}
		return copyDocument(col[id]), nil
	}

	// Top-level field union, matching JSONB concatenation.
	for k, v := range normalized {
		existing.Doc[k] = v
	}
	existing.UpdatedAt = now
	return copyDocument(existing), nil
}

func (m *MemoryStore) List(_ context.Context, collection string, q Query) (*Page, error) {
	limit := clampLimit(q.Limit)

	var after *cursor
	if q.Cursor != "" {
		c, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		after = &c
	}

	// Copy while holding the lock; a concurrent SetMerge mutates stored
	// documents in place.
	m.mu.RLock()
	matched := make([]*Document, 0, len(m.collections[collection]))
	for _, doc := range m.collections[collection] {
		if matchesFilter(doc.Doc, q.Filter) {
			matched = append(matched, copyDocument(doc))
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	items := make([]Document, 0, limit)
	for _, doc := range matched {
		if after != nil && !positionAfter(doc, *after) {
			continue
		}
		items = append(items, *doc)
		if len(items) == limit+1 {
			break
		}
	}

	page := &Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.Next = encodeCursor(cursor{UpdatedAt: last.UpdatedAt, ID: last.ID})
	}
	return page, nil
}

// positionAfter reports whether doc sorts strictly after the cursor in
// (updated_at DESC, id ASC) order.
func positionAfter(doc *Document, c cursor) bool {
	if doc.UpdatedAt.Before(c.UpdatedAt) {
		return true
	}
	if doc.UpdatedAt.Equal(c.UpdatedAt) {
		return doc.ID > c.ID
	}
	return false
}

func matchesFilter(doc map[string]interface{}, filter map[string]string) bool {
	for field, want := range filter {
		got, ok := doc[field]
		if !ok || fmt.Sprintf("%v", got) != want {
			return false
		}
	}
	return true
}

// normalize round-trips through JSON so stored values have the same
// dynamic types the Postgres store returns.
func normalize(doc map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyDocument(doc *Document) *Document {
	out := &Document{
		ID:        doc.ID,
		Doc:       make(map[string]interface{}, len(doc.Doc)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for k, v := range doc.Doc {
		out.Doc[k] = v
	}
	return out
}

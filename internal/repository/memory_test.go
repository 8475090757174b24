package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetMergeIdempotency(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store.SetClock(func() time.Time { return clock })

	first, err := store.SetMerge(ctx, CollectionStories, "SH001_en", map[string]interface{}{
		"content_ref": "mem://content/SH001_en.md",
		"tone":        "narrative",
	})
	require.NoError(t, err)

	clock = base.Add(time.Minute)
	second, err := store.SetMerge(ctx, CollectionStories, "SH001_en", map[string]interface{}{
		"content_ref": "mem://content/SH001_en.v2.md",
	})
	require.NoError(t, err)

	// Same key, one record: new fields win, untouched fields survive,
	// created_at is from the first write only.
	assert.Equal(t, "mem://content/SH001_en.v2.md", second.Doc["content_ref"])
	assert.Equal(t, "narrative", second.Doc["tone"])
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	page, err := store.List(ctx, CollectionStories, Query{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestMemoryGetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), CollectionProducts, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store.SetClock(func() time.Time { return clock })

	// b and c share a timestamp; id ascending breaks the tie.
	_, err := store.SetMerge(ctx, CollectionStories, "a", map[string]interface{}{"n": 1})
	require.NoError(t, err)
	clock = base.Add(time.Minute)
	_, err = store.SetMerge(ctx, CollectionStories, "c", map[string]interface{}{"n": 2})
	require.NoError(t, err)
	_, err = store.SetMerge(ctx, CollectionStories, "b", map[string]interface{}{"n": 3})
	require.NoError(t, err)

	page, err := store.List(ctx, CollectionStories, Query{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "b", page.Items[0].ID)
	assert.Equal(t, "c", page.Items[1].ID)
	assert.Equal(t, "a", page.Items[2].ID)
	assert.Empty(t, page.Next)
}

func TestMemoryListWalkIsGaplessAndDuplicateFree(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store.SetClock(func() time.Time { return clock })

	existing := make(map[string]bool)
	for i := 0; i < 17; i++ {
		id := fmt.Sprintf("doc-%02d", i)
		// Collide timestamps in pairs to exercise the tie-break.
		clock = base.Add(time.Duration(i/2) * time.Second)
		_, err := store.SetMerge(ctx, CollectionStories, id, map[string]interface{}{"n": i})
		require.NoError(t, err)
		existing[id] = true
	}

	seen := make(map[string]bool)
	cursor := ""
	pages := 0
	for {
		page, err := store.List(ctx, CollectionStories, Query{Limit: 5, Cursor: cursor})
		require.NoError(t, err)
		for _, item := range page.Items {
			assert.False(t, seen[item.ID], "item %s returned twice", item.ID)
			seen[item.ID] = true
		}

		// Inserts after a page is cut must not disturb the walk.
		if pages == 1 {
			clock = clock.Add(time.Hour)
			_, err := store.SetMerge(ctx, CollectionStories, "inserted-mid-walk", map[string]interface{}{"n": 99})
			require.NoError(t, err)
		}

		pages++
		if page.Next == "" {
			break
		}
		cursor = page.Next
	}

	assert.Equal(t, 4, pages)
	assert.Len(t, seen, len(existing))
	for id := range existing {
		assert.True(t, seen[id], "item %s skipped", id)
	}
	assert.False(t, seen["inserted-mid-walk"])
}

func TestMemoryListFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.SetMerge(ctx, CollectionMarketing, "SH001_en_x", map[string]interface{}{"product_id": "SH001", "channel": "x"})
	require.NoError(t, err)
	_, err = store.SetMerge(ctx, CollectionMarketing, "SH002_en_x", map[string]interface{}{"product_id": "SH002", "channel": "x"})
	require.NoError(t, err)

	page, err := store.List(ctx, CollectionMarketing, Query{Filter: map[string]string{"product_id": "SH001"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "SH001_en_x", page.Items[0].ID)
}

func TestMemoryListLimitClamping(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := store.SetMerge(ctx, CollectionStories, fmt.Sprintf("d%02d", i), map[string]interface{}{"n": i})
		require.NoError(t, err)
	}

	page, err := store.List(ctx, CollectionStories, Query{Limit: 0})
	require.NoError(t, err)
	assert.Len(t, page.Items, DefaultPageSize)

	page, err = store.List(ctx, CollectionStories, Query{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Items, 30)
}

func TestMemoryListDuringConcurrentMerges(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.SetMerge(ctx, CollectionStories, "SH001_en", map[string]interface{}{
		"provider": "fallback",
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, err := store.SetMerge(ctx, CollectionStories, "SH001_en", map[string]interface{}{
				"version": i,
			})
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 200; i++ {
		page, err := store.List(ctx, CollectionStories, Query{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "fallback", page.Items[0].Doc["provider"])
	}
	<-done
}

func TestCursorRoundTrip(t *testing.T) {
	want := cursor{
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		ID:        "SH001_en",
	}

	got, err := decodeCursor(encodeCursor(want))
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(want.UpdatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestCursorDecodeRejectsGarbage(t *testing.T) {
	for _, token := range []string{"@@@", "bm8tcGlwZQ", ""} {
		_, err := decodeCursor(token)
		assert.Error(t, err, "token %q", token)
	}
}

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreWriteRead(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()

	uri, err := store.WriteBytes(ctx, "content/p1_en.md", []byte("# Story"), "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, "mem://content/p1_en.md", uri)
	assert.Equal(t, "text/markdown", store.ContentType("content/p1_en.md"))

	data, err := store.ReadBytes(ctx, "content/p1_en.md")
	require.NoError(t, err)
	assert.Equal(t, "# Story", string(data))
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()

	_, err := store.WriteBytes(ctx, "k", []byte("v1"), "text/plain")
	require.NoError(t, err)
	_, err = store.WriteBytes(ctx, "k", []byte("v2"), "text/plain")
	require.NoError(t, err)

	data, err := store.ReadBytes(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreReadMissing(t *testing.T) {
	store := NewMemoryStore("")

	_, err := store.ReadBytes(context.Background(), "absent")
	assert.Error(t, err)
}

func TestMemoryStorePublicURL(t *testing.T) {
	assert.Equal(t, "mem://a/b", NewMemoryStore("").PublicURL("a/b"))
	assert.Equal(t, "https://cdn.example.com/a/b", NewMemoryStore("https://cdn.example.com").PublicURL("a/b"))
}

func TestMemoryStoreCopiesData(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()

	src := []byte("original")
	_, err := store.WriteBytes(ctx, "k", src, "")
	require.NoError(t, err)
	src[0] = 'X'

	data, err := store.ReadBytes(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

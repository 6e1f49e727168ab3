package db

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-rag/internal/config"
	"content-rag/internal/helper"
	"content-rag/internal/models"
	"content-rag/internal/vector"
)

func newTestStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.db")
	bdb, err := Connect(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + path + "?_pragma=foreign_keys(1)",
	})
	require.NoError(t, err)

	store := NewStore(bdb, opts...)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Init(context.Background()))
	return store
}

func testChunks(texts ...string) []models.Chunk {
	out := make([]models.Chunk, len(texts))
	for i, text := range texts {
		out[i] = models.Chunk{
			Text:      text,
			Embedding: vector.Fit([]float32{float32(i + 1), 0.5, -0.25}, 3),
		}
	}
	return out
}

func TestStore_UpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	doc := &models.Document{
		RawContent:        "Raw body",
		Metadata:          "Title: T",
		Tags:              "go, rag",
		Summary:           "It describes things.",
		NormalizedContent: "raw body",
	}
	id, err := store.Upsert(ctx, doc, testChunks("alpha", "beta", "gamma"))
	require.NoError(t, err)
	assert.Equal(t, helper.DocumentID("", "Raw body"), id)
	assert.Equal(t, id, doc.ID)

	chunks, err := store.ChunksOf(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, 3, c.Embedding.Dim())
		assert.Equal(t, float32(i+1), c.Embedding.At(0))
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, []string{chunks[0].Text, chunks[1].Text, chunks[2].Text})

	loaded, err := store.Document(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "go, rag", loaded.Tags)
	assert.Equal(t, "raw body", loaded.NormalizedContent)
	assert.Empty(t, loaded.SourceRef)
}

func TestStore_ReingestReplacesChunks(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := &models.Document{SourceRef: "https://example.com/post", RawContent: "v1", Tags: "old", Summary: "s1"}
	id1, err := store.Upsert(ctx, first, testChunks("a", "b", "c"))
	require.NoError(t, err)

	second := &models.Document{SourceRef: "https://example.com/post", RawContent: "v2", Tags: "new", Summary: "s2"}
	id2, err := store.Upsert(ctx, second, testChunks("d"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	summaries, err := store.ListDocumentSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, models.DocumentSummary{DocumentID: id1, Tags: "new", Summary: "s2"}, summaries[0])

	chunks, err := store.ChunksOf(ctx, id1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "d", chunks[0].Text)
}

func TestStore_ReingestKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := &models.Document{SourceRef: "https://example.com/post", RawContent: "v1"}
	id, err := store.Upsert(ctx, first, testChunks("a"))
	require.NoError(t, err)
	require.False(t, first.CreatedAt.IsZero())

	time.Sleep(20 * time.Millisecond)

	second := &models.Document{SourceRef: "https://example.com/post", RawContent: "v2"}
	_, err = store.Upsert(ctx, second, testChunks("b"))
	require.NoError(t, err)

	stored, err := store.Document(ctx, id)
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "first %v, second %v", first.CreatedAt, second.CreatedAt)
	assert.True(t, stored.CreatedAt.Equal(second.CreatedAt), "stored %v, returned %v", stored.CreatedAt, second.CreatedAt)
}

func TestStore_IdenticalContentSameID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id1, err := store.Upsert(ctx, &models.Document{RawContent: "same"}, testChunks("x"))
	require.NoError(t, err)
	id2, err := store.Upsert(ctx, &models.Document{RawContent: "same"}, testChunks("x"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	all, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_UpdateTags(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.Upsert(ctx, &models.Document{RawContent: "body", Tags: "a"}, nil)
	require.NoError(t, err)

	require.NoError(t, store.UpdateTags(ctx, id, "b, c"))
	doc, err := store.Document(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "b, c", doc.Tags)
	assert.Equal(t, id, doc.ID)

	err = store.UpdateTags(ctx, "missing", "x")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_DocumentNotFound(t *testing.T) {
	_, err := newTestStore(t).Document(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Upsert(ctx, &models.Document{RawContent: "body"}, testChunks("a"))
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	summaries, err := store.ListDocumentSummaries(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	all, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(&config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestStore_WarnsOnUnexpectedDimension(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	ctx := context.Background()
	store := newTestStore(t, WithDimension(3))

	chunks := []models.Chunk{
		{Text: "fits", Embedding: vector.Fit([]float32{1, 0, 0}, 3)},
		{Text: "stale", Embedding: vector.Fit([]float32{1, 0}, 2)},
	}
	id, err := store.Upsert(ctx, &models.Document{RawContent: "mixed"}, chunks)
	require.NoError(t, err)

	got, err := store.ChunksOf(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Embedding.Dim())
	assert.Equal(t, 2, got[1].Embedding.Dim(), "stored length is kept so retrieval can skip it")

	out := buf.String()
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Stored embedding has unexpected dimension")), out)
	assert.Contains(t, out, `"position":1`)
}

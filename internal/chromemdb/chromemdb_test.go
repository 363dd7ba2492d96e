package chromemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tariff-rag/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("", "documents", true)
	require.NoError(t, err)
	return store
}

func chunk(source, section string, page int, content, bucket string, embedding []float32) models.Chunk {
	return models.Chunk{
		Content:     content,
		Embedding:   embedding,
		Source:      source,
		Section:     section,
		Title:       "Title " + section,
		PageStart:   page,
		PageEnd:     page,
		Bucket:      bucket,
		ContentHash: testHash(content),
	}
}

func testHash(content string) string {
	// Any stable digest works for the ID derivation under test.
	return content
}

func TestUpsertChunksIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []models.Chunk{
		chunk("tariff.pdf", "1.1", 1, "first chunk", "", []float32{1, 0}),
		chunk("tariff.pdf", "2.1", 2, "second chunk", "", []float32{0, 1}),
	}

	inserted, err := store.UpsertChunks(ctx, chunks)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	require.Equal(t, 2, store.Count())

	// Same content maps to the same IDs, so nothing new is added.
	inserted, err = store.UpsertChunks(ctx, chunks)
	require.NoError(t, err)
	require.Zero(t, inserted)
	require.Equal(t, 2, store.Count())
}

func TestUpsertChunksNewContentGrows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertChunks(ctx, []models.Chunk{
		chunk("tariff.pdf", "1.1", 1, "original text", "", []float32{1, 0}),
	})
	require.NoError(t, err)

	inserted, err := store.UpsertChunks(ctx, []models.Chunk{
		chunk("tariff.pdf", "1.1", 1, "revised text", "", []float32{1, 0}),
	})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)
	require.Equal(t, 2, store.Count())
}

func TestUpsertChunksEmptyBatch(t *testing.T) {
	store := newTestStore(t)
	inserted, err := store.UpsertChunks(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, inserted)
}

func TestSearchSimilarOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertChunks(ctx, []models.Chunk{
		chunk("a.pdf", "1.1", 1, "exact match", "", []float32{1, 0}),
		chunk("a.pdf", "2.1", 2, "close match", "", []float32{0.9, 0.1}),
		chunk("a.pdf", "3.1", 3, "orthogonal", "", []float32{0, 1}),
	})
	require.NoError(t, err)

	candidates, err := store.SearchSimilar(ctx, []float32{1, 0}, "", 3)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	require.Equal(t, "exact match", candidates[0].Content)
	require.Equal(t, "close match", candidates[1].Content)
	require.Equal(t, "orthogonal", candidates[2].Content)
	require.LessOrEqual(t, candidates[0].Distance, candidates[1].Distance)
	require.LessOrEqual(t, candidates[1].Distance, candidates[2].Distance)
	require.InDelta(t, 0, candidates[0].Distance, 0.001)

	require.Equal(t, "a.pdf", candidates[0].Source)
	require.Equal(t, "1.1", candidates[0].Section)
	require.Equal(t, 1, candidates[0].PageStart)
}

func TestSearchSimilarBucketFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertChunks(ctx, []models.Chunk{
		chunk("a.pdf", "1.1", 1, "ercot one", "ercot", []float32{1, 0}),
		chunk("a.pdf", "2.1", 2, "ercot two", "ercot", []float32{0.8, 0.2}),
		chunk("b.pdf", "1.1", 1, "other bucket", "centerpoint", []float32{1, 0}),
	})
	require.NoError(t, err)

	candidates, err := store.SearchSimilar(ctx, []float32{1, 0}, "ercot", 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		require.Equal(t, "ercot", c.Bucket)
	}
}

func TestSearchSimilarEmptyCollection(t *testing.T) {
	store := newTestStore(t)
	candidates, err := store.SearchSimilar(context.Background(), []float32{1, 0}, "", 5)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestSearchSimilarTopKAboveCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertChunks(ctx, []models.Chunk{
		chunk("a.pdf", "1.1", 1, "only chunk", "", []float32{1, 0}),
	})
	require.NoError(t, err)

	candidates, err := store.SearchSimilar(ctx, []float32{1, 0}, "", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
}

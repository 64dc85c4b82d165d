package sqliteStore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func chunk(id, doc string, index int, vec ...float32) kbModel.Chunk {
	return kbModel.Chunk{
		ID:           id,
		DocumentID:   doc,
		DocumentName: doc + ".txt",
		ChunkIndex:   index,
		Text:         "text of " + id,
		TokenCount:   3,
		Vector:       vec,
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestDocuments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, kbModel.Document{ID: "b", Filename: "b.txt", ChunkCount: 2, TotalTokens: 20, CreatedAt: base.Add(time.Second)}))
	require.NoError(t, store.SaveDocument(ctx, kbModel.Document{ID: "a", Filename: "a.txt", ChunkCount: 1, TotalTokens: 10, CreatedAt: base}))

	doc, found, err := store.GetDocument(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a.txt", doc.Filename)
	assert.True(t, doc.CreatedAt.Equal(base))

	_, found, err = store.GetDocument(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	require.NoError(t, store.DeleteDocument(ctx, "a"))
	docs, err = store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChunks(ctx, []kbModel.Chunk{
		chunk("c2", "doc1", 1, 0, 1),
		chunk("c1", "doc1", 0, 1, 0),
		chunk("c3", "doc2", 0, 0.7, 0.7),
	}))

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("sample keeps insertion order", func(t *testing.T) {
		sample, err := store.Sample(ctx, 2)
		require.NoError(t, err)
		require.Len(t, sample, 2)
		assert.Equal(t, "c2", sample[0].ID)
		assert.Equal(t, "c1", sample[1].ID)
	})

	t.Run("chunks by document are ordered and carry vectors", func(t *testing.T) {
		chunks, err := store.ChunksByDocument(ctx, "doc1")
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, 0, chunks[0].ChunkIndex)
		assert.Equal(t, []float32{1, 0}, chunks[0].Vector)
	})

	t.Run("similarity ranking", func(t *testing.T) {
		hits, err := store.SimilaritySearch(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "c1", hits[0].Chunk.ID)
		assert.InDelta(t, 1.0, *hits[0].Score, 1e-6)
		assert.Equal(t, "c3", hits[1].Chunk.ID)
		assert.GreaterOrEqual(t, *hits[0].Score, *hits[1].Score)
	})

	t.Run("query of the wrong size fails", func(t *testing.T) {
		_, err := store.SimilaritySearch(ctx, []float32{1, 0, 0}, 2)
		assert.ErrorIs(t, err, kbModel.ErrDimensionMismatch)
	})

	t.Run("delete only touches one document", func(t *testing.T) {
		removed, err := store.DeleteByDocument(ctx, "doc1")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		left, err := store.Sample(ctx, 10)
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, "c3", left[0].ID)

		removed, err = store.DeleteByDocument(ctx, "doc1")
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestVectorEncoding(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	assert.Equal(t, in, decodeVector(encodeVector(in)))
	assert.Nil(t, decodeVector([]byte{1, 2, 3}))
	assert.Nil(t, encodeVector(nil))
}

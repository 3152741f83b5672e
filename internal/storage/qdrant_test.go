//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStorage connects to a local Qdrant on a throwaway collection.
// Skips test if Qdrant is not running.
func setupTestStorage(t *testing.T) *QdrantStorage {
	storage, err := NewQdrantStorage(context.Background(), QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "pdfindex-test-" + uuid.New().String(),
		Dimension:  DefaultVectorDimension,
	})
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	t.Cleanup(func() {
		storage.client.DeleteCollection(context.Background(), storage.collection)
		storage.Close()
	})
	return storage
}

func vectorOf(value float32) []float32 {
	vec := make([]float32, DefaultVectorDimension)
	for i := range vec {
		vec[i] = value
	}
	return vec
}

func TestQdrant_RecordRoundTrip(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	rec := &Record{
		ID:        "report.pdf_page_3_chunk_0",
		Embedding: vectorOf(0.1),
		Metadata: map[string]string{
			MetaFile:  "report.pdf",
			MetaPage:  "3",
			MetaChunk: "Quarterly revenue grew in every region.",
		},
	}
	require.NoError(t, storage.Upsert(ctx, rec), "Failed to upsert record")

	results, err := storage.Query(ctx, vectorOf(0.1), 10)
	require.NoError(t, err, "Failed to query")
	require.Len(t, results, 1, "Expected 1 search result")

	assert.Equal(t, rec.ID, results[0].ID)
	assert.Equal(t, rec.Metadata, results[0].Metadata)
}

func TestQdrant_UpsertIsIdempotent(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	rec := &Record{
		ID:        "a.pdf_page_0_chunk_0",
		Embedding: vectorOf(0.2),
		Metadata:  map[string]string{MetaFile: "a.pdf", MetaPage: "0", MetaChunk: "text"},
	}
	require.NoError(t, storage.Upsert(ctx, rec))
	require.NoError(t, storage.Upsert(ctx, rec))

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQdrant_Clear(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Clear(ctx), "Clear on empty collection should succeed")

	require.NoError(t, storage.Upsert(ctx, &Record{
		ID:        "x",
		Embedding: vectorOf(0.3),
		Metadata:  map[string]string{MetaFile: "x.pdf", MetaPage: "0", MetaChunk: "x"},
	}))
	require.NoError(t, storage.Clear(ctx))

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	results, err := storage.Query(ctx, vectorOf(0.3), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQdrant_DimensionMismatch(t *testing.T) {
	storage := setupTestStorage(t)

	err := storage.Upsert(context.Background(), &Record{ID: "bad", Embedding: []float32{1, 2, 3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

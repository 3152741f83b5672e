package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/pdfindex/internal/storage"
)

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0, 1}, nil
}

type stubQuerier struct {
	results []storage.Result
	err     error
	gotK    int
}

func (s *stubQuerier) Query(_ context.Context, _ []float32, k int) ([]storage.Result, error) {
	s.gotK = k
	return s.results, s.err
}

func TestQuery_DefaultTopK(t *testing.T) {
	store := &stubQuerier{}
	svc := NewService(&stubEmbedder{}, store, 0, nil)

	_, err := svc.Query(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, store.gotK)
	assert.Equal(t, DefaultTopK, svc.DefaultTopK())

	_, err = svc.Query(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, store.gotK)
}

func TestQuery_EmptyText(t *testing.T) {
	svc := NewService(&stubEmbedder{}, &stubQuerier{}, 5, nil)

	_, err := svc.Query(context.Background(), "   \n", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestQuery_EmptyStoreReturnsEmptySlice(t *testing.T) {
	svc := NewService(&stubEmbedder{}, &stubQuerier{}, 5, nil)

	results, err := svc.Query(context.Background(), "question", 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestQuery_Failures(t *testing.T) {
	embedErr := errors.New("ollama unreachable")
	svc := NewService(&stubEmbedder{err: embedErr}, &stubQuerier{}, 5, nil)
	results, err := svc.Query(context.Background(), "question", 5)
	assert.ErrorIs(t, err, embedErr)
	assert.Nil(t, results)

	svc = NewService(&stubEmbedder{}, &stubQuerier{err: storage.ErrStoreUnreachable}, 5, nil)
	results, err = svc.Query(context.Background(), "question", 5)
	assert.ErrorIs(t, err, storage.ErrStoreUnreachable)
	assert.Nil(t, results)
}

func TestQuery_AgainstChromem(t *testing.T) {
	store, err := storage.NewChromemStorage(filepath.Join(t.TempDir(), "db"), storage.DefaultCollectionName, 4)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	embedder := &stubEmbedder{vectors: map[string][]float32{
		"What is the capital of France?": {1, 0.1, 0, 0},
	}}
	svc := NewService(embedder, store, 5, nil)

	// Empty store.
	results, err := svc.Query(ctx, "What is the capital of France?", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	records := []*storage.Record{
		{ID: "geo.pdf_page_0_chunk_0", Embedding: []float32{1, 0, 0, 0}, Metadata: map[string]string{
			storage.MetaFile: "geo.pdf", storage.MetaPage: "0", storage.MetaChunk: "Paris is the capital of France.",
		}},
		{ID: "geo.pdf_page_1_chunk_0", Embedding: []float32{0, 1, 0, 0}, Metadata: map[string]string{
			storage.MetaFile: "geo.pdf", storage.MetaPage: "1", storage.MetaChunk: "Mountains and rivers.",
		}},
		{ID: "food.pdf_page_4_chunk_2", Embedding: []float32{0, 0, 1, 0}, Metadata: map[string]string{
			storage.MetaFile: "food.pdf", storage.MetaPage: "4", storage.MetaChunk: "Cheese.",
		}},
	}
	for _, rec := range records {
		require.NoError(t, store.Upsert(ctx, rec))
	}

	results, err = svc.Query(ctx, "What is the capital of France?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "geo.pdf_page_0_chunk_0", results[0].ID)
	assert.Equal(t, "Paris is the capital of France.", results[0].Chunk())
	assert.Equal(t, "0", results[0].Page())
	assert.Equal(t, "geo.pdf_page_1_chunk_0", results[1].ID)
	assert.Equal(t, records[1].Metadata, results[1].Metadata)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
}

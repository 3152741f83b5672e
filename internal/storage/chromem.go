package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"
)

// DefaultChromemPath is the on-disk location of the local vector store.
const DefaultChromemPath = "./chroma_db"

// errNoEmbeddingFunc guards against chromem computing embeddings itself.
// Every record arrives with its vector already attached.
var errNoEmbeddingFunc = errors.New("chromem: embeddings must be supplied by the caller")

// ChromemStorage is a persistent, embedded vector store backed by chromem-go.
// Records are written to disk as they are upserted.
type ChromemStorage struct {
	db         *chromem.DB
	name       string
	dimension  int
	mu         sync.RWMutex
	collection *chromem.Collection
}

// NewChromemStorage opens (or creates) the database at path and the named
// collection inside it.
func NewChromemStorage(path, collection string, dimension int) (*ChromemStorage, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dimension)
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: open chromem db at %s: %v", ErrStoreUnreachable, path, err)
	}

	s := &ChromemStorage{
		db:        db,
		name:      collection,
		dimension: dimension,
	}
	if err := s.ensureCollection(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStorage) ensureCollection() error {
	col, err := s.db.GetOrCreateCollection(s.name, nil, noEmbeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to get collection %s: %w", s.name, err)
	}
	s.mu.Lock()
	s.collection = col
	s.mu.Unlock()
	return nil
}

func noEmbeddingFunc(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

func (s *ChromemStorage) current() *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection
}

// Backend returns the store kind for status reporting.
func (s *ChromemStorage) Backend() string { return "chromem" }

// CollectionName returns the name of the collection in use.
func (s *ChromemStorage) CollectionName() string { return s.name }

// Health reports whether the collection is open.
func (s *ChromemStorage) Health(ctx context.Context) error {
	if s.current() == nil {
		return fmt.Errorf("%w: collection %s not open", ErrStoreUnreachable, s.name)
	}
	return nil
}

// Upsert inserts the record or replaces the one with the same ID.
func (s *ChromemStorage) Upsert(ctx context.Context, rec *Record) error {
	if err := validateRecord(rec, s.dimension); err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Metadata:  copyMetadata(rec.Metadata),
		Embedding: append([]float32(nil), rec.Embedding...),
		Content:   rec.Metadata[MetaChunk],
	}
	if err := s.current().AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", rec.ID, err)
	}
	return nil
}

// Clear removes every record by dropping and recreating the collection.
// Safe to call on an empty store.
func (s *ChromemStorage) Clear(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return s.ensureCollection()
}

// Query returns up to k records nearest to vector, most similar first.
func (s *ChromemStorage) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	col := s.current()
	// chromem rejects nResults larger than the collection.
	k = min(k, col.Count())
	if k <= 0 {
		return []Result{}, nil
	}

	found, err := col.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	results := make([]Result, 0, len(found))
	for _, r := range found {
		results = append(results, Result{
			ID:         r.ID,
			Metadata:   copyMetadata(r.Metadata),
			Similarity: float64(r.Similarity),
		})
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *ChromemStorage) Count(ctx context.Context) (int, error) {
	return s.current().Count(), nil
}

// Close is a no-op; chromem persists every write immediately.
func (s *ChromemStorage) Close() error {
	return nil
}

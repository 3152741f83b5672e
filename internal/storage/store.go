package storage

import "context"

// Store is the contract shared by every vector store backend.
type Store interface {
	Upsert(ctx context.Context, rec *Record) error
	Clear(ctx context.Context) error
	Query(ctx context.Context, vector []float32, k int) ([]Result, error)
	Count(ctx context.Context) (int, error)
	Health(ctx context.Context) error
	Backend() string
	CollectionName() string
	Close() error
}

var (
	_ Store = (*ChromemStorage)(nil)
	_ Store = (*QdrantStorage)(nil)
)

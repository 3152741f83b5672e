package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// vectorName is the named vector holding chunk embeddings.
const vectorName = "content"

// pointNamespace seeds the deterministic point UUIDs derived from record IDs.
var pointNamespace = uuid.MustParse("6f1c2b7e-4a0d-4f57-9a53-2c1e8d4b7a10")

// QdrantConfig holds connection settings for a Qdrant server.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
}

// QdrantStorage wraps the Qdrant client with connection management and health checks.
type QdrantStorage struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(ctx context.Context, cfg QdrantConfig) (*QdrantStorage, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", cfg.Dimension)
	}

	// Create Qdrant client using gRPC
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}

	if err := storage.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	if err := storage.EnsureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return storage, nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(newBackoff(), ctx))
}

// Backend returns the store kind for status reporting.
func (s *QdrantStorage) Backend() string { return "qdrant" }

// CollectionName returns the name of the collection in use.
func (s *QdrantStorage) CollectionName() string { return s.collection }

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection creates the collection with cosine distance and a keyword
// index on the file field. Idempotent.
func (s *QdrantStorage) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     uint64(s.dimension),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      MetaFile,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create index for field %s: %w", MetaFile, err)
	}

	return nil
}

// Clear deletes all points by dropping and recreating the collection.
func (s *QdrantStorage) Clear(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}
	return s.EnsureCollection(ctx)
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// PointID maps a record identifier onto the UUID Qdrant requires.
// The same identifier always yields the same point, so upserts replace.
func PointID(recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

// Upsert stores the record, replacing any point with the same identifier.
func (s *QdrantStorage) Upsert(ctx context.Context, rec *Record) error {
	if err := validateRecord(rec, s.dimension); err != nil {
		return err
	}

	payload := map[string]any{"id": rec.ID}
	for k, v := range rec.Metadata {
		payload[k] = v
	}

	point := &qdrant.PointStruct{
		Id: qdrant.NewIDUUID(PointID(rec.ID)),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
			vectorName: qdrant.NewVector(rec.Embedding...),
		}),
		Payload: qdrant.NewValueMap(payload),
	}

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         []*qdrant.PointStruct{point},
		})
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx)); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", rec.ID, err)
	}
	return nil
}

// Query performs vector similarity search.
// Returns top k records ordered by score descending.
func (s *QdrantStorage) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}
	if k <= 0 {
		return []Result{}, nil
	}

	using := vectorName
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Using:          &using,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	results := make([]Result, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		results = append(results, Result{
			ID: payload["id"].GetStringValue(),
			Metadata: map[string]string{
				MetaFile:  payload[MetaFile].GetStringValue(),
				MetaPage:  pageString(payload[MetaPage]),
				MetaChunk: payload[MetaChunk].GetStringValue(),
			},
			Similarity: float64(point.Score),
		})
	}

	return results, nil
}

// pageString reads the page field, which older points may hold as an integer.
func pageString(v *qdrant.Value) string {
	if v == nil {
		return ""
	}
	if _, ok := v.GetKind().(*qdrant.Value_IntegerValue); ok {
		return strconv.FormatInt(v.GetIntegerValue(), 10)
	}
	return v.GetStringValue()
}

// Count returns the exact number of points in the collection.
func (s *QdrantStorage) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Package app wires configuration into the store, embedder, extractor,
// ingestion pipeline and query service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bull/pdfindex/internal/chunker"
	"github.com/bull/pdfindex/internal/config"
	"github.com/bull/pdfindex/internal/embedding"
	"github.com/bull/pdfindex/internal/indexer"
	"github.com/bull/pdfindex/internal/pdf"
	"github.com/bull/pdfindex/internal/search"
	"github.com/bull/pdfindex/internal/storage"
)

// App holds the components shared by the commands for one process lifetime.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    storage.Store
	Embedder *embedding.Embedder
	Pipeline *indexer.Pipeline
	Search   *search.Service
}

// Status summarises the index.
type Status struct {
	Backend     string `json:"backend"`
	Collection  string `json:"collection"`
	TotalChunks int    `json:"total_chunks"`
}

// New opens the configured store and embedding source and builds the
// pipeline and query service on top of them. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chunk, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	scheme, err := indexer.ParseIDScheme(cfg.ChunkIDScheme)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	extractor, err := newExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	source, err := newSource(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	embedder := embedding.NewEmbedder(source, cfg.EmbeddingModel, cfg.VectorDimension, retries(cfg.EmbeddingMaxRetries))

	logger.Debug("Components ready",
		"store", store.Backend(),
		"collection", store.CollectionName(),
		"provider", cfg.EmbeddingProvider,
		"model", embedder.Model(),
		"extractor", cfg.Extractor,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Embedder: embedder,
		Pipeline: indexer.NewPipeline(extractor, chunk, embedder, store, logger,
			indexer.WithExtension(cfg.Extension),
			indexer.WithIDScheme(scheme),
		),
		Search: search.NewService(embedder, store, cfg.QueryTopK, logger),
	}, nil
}

// retries maps the configured count onto NewEmbedder, where zero means default.
func retries(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

func newExtractor(kind string) (indexer.Extractor, error) {
	switch kind {
	case "", "native":
		return pdf.NewReader(), nil
	case "pdftotext":
		return pdf.NewPdftotext(), nil
	default:
		return nil, fmt.Errorf("%w: unknown extractor %q", config.ErrInvalidConfig, kind)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.VectorStore {
	case "", "chromem":
		return storage.NewChromemStorage(cfg.ChromaPath, cfg.CollectionName, cfg.VectorDimension)
	case "qdrant":
		return storage.NewQdrantStorage(ctx, storage.QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.CollectionName,
			Dimension:  cfg.VectorDimension,
		})
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", config.ErrInvalidConfig, cfg.VectorStore)
	}
}

func newSource(ctx context.Context, cfg *config.Config) (embedding.Source, error) {
	switch cfg.EmbeddingProvider {
	case "", "ollama":
		return embedding.NewOllamaClient(cfg.EmbeddingBaseURL), nil
	case "openai":
		return embedding.NewOpenAIClient(cfg.EmbeddingBaseURL, cfg.OpenAIAPIKey)
	case "gemini":
		return embedding.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", config.ErrInvalidConfig, cfg.EmbeddingProvider)
	}
}

// Status reports the backend, collection and record count.
func (a *App) Status(ctx context.Context) (Status, error) {
	count, err := a.Store.Count(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count records: %w", err)
	}
	return Status{
		Backend:     a.Store.Backend(),
		Collection:  a.Store.CollectionName(),
		TotalChunks: count,
	}, nil
}

// Close releases the embedding source and the store.
func (a *App) Close() error {
	return errors.Join(a.Embedder.Close(), a.Store.Close())
}

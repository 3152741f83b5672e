// Package search answers free-text queries against the vector store.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/pdfindex/internal/storage"
)

// DefaultTopK is the number of results returned when the caller asks for none.
const DefaultTopK = 5

// ErrEmptyQuery is returned for blank query text.
var ErrEmptyQuery = errors.New("query text is empty")

// Embedder turns query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Querier finds the records nearest to a vector.
type Querier interface {
	Query(ctx context.Context, vector []float32, k int) ([]storage.Result, error)
}

// Service embeds queries and looks up their nearest chunks.
type Service struct {
	embedder Embedder
	store    Querier
	topK     int
	logger   *slog.Logger
}

// NewService creates a query service. A non-positive topK selects DefaultTopK.
func NewService(embedder Embedder, store Querier, topK int, logger *slog.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   logger,
	}
}

// DefaultTopK returns the result count used when Query is called with topK <= 0.
func (s *Service) DefaultTopK() int { return s.topK }

// Query returns up to topK records most similar to text, best first.
// An empty store yields an empty slice.
func (s *Service) Query(ctx context.Context, text string, topK int) ([]storage.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	if results == nil {
		results = []storage.Result{}
	}

	s.logger.Debug("Query complete", "query", text, "top_k", topK, "results", len(results))
	return results, nil
}

package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"google.golang.org/api/googleapi"
)

const (
	// DefaultModel is the embedding model served by Ollama by default.
	DefaultModel = "nomic-embed-text"

	// DefaultDimension is the vector dimension of nomic-embed-text.
	// This matches storage.DefaultVectorDimension (768).
	DefaultDimension = 768

	// DefaultMaxRetries bounds retries of a single embedding request.
	DefaultMaxRetries = 3
)

var (
	// ErrEmbeddingFailed wraps every failure to produce an embedding.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrDimensionMismatch means the model returned a vector of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Source produces an embedding for a single text.
type Source interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
	Close() error
}

// Embedder generates fixed-dimension embeddings from a Source.
// Transient failures are retried with exponential backoff up to maxRetries times.
type Embedder struct {
	source     Source
	model      string
	dimension  int
	maxRetries int
	newBackOff func() backoff.BackOff
}

// NewEmbedder creates an Embedder. Zero values select DefaultModel,
// DefaultDimension and DefaultMaxRetries; a negative maxRetries disables retries.
func NewEmbedder(source Source, model string, dimension, maxRetries int) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Embedder{
		source:     source,
		model:      model,
		dimension:  dimension,
		maxRetries: maxRetries,
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// Model returns the model name sent to the source.
func (e *Embedder) Model() string { return e.model }

// Dimension returns the vector length every embedding must have.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the embedding for text.
// Rate limits, server errors and transport errors are retried.
// Other client errors and dimension mismatches fail immediately.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	var vector []float32

	operation := func() error {
		v, err := e.source.Embed(ctx, e.model, text)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(v) != e.dimension {
			return backoff.Permanent(fmt.Errorf("%w: got %d, expected %d",
				ErrDimensionMismatch, len(v), e.dimension))
		}
		vector = v
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(e.newBackOff(), uint64(e.maxRetries)), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	return vector, nil
}

// Close releases the underlying source.
func (e *Embedder) Close() error {
	return e.source.Close()
}

// isRetryable reports whether err is worth another attempt.
// HTTP 429 and 5xx are retryable; any other status is permanent.
// Errors without a status (connection refused, timeouts) are retryable.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return retryableStatus(gErr.Code)
	}

	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

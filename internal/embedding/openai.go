package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOllamaBaseURL is Ollama's OpenAI-compatible endpoint.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// OpenAIClient embeds text through any OpenAI-compatible embeddings endpoint.
// It serves both OpenAI itself and a local Ollama instance.
type OpenAIClient struct {
	client openai.Client
}

// NewOllamaClient creates a client for a local Ollama server.
// An empty baseURL uses DefaultOllamaBaseURL.
func NewOllamaClient(baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	// Ollama ignores the key but the client requires one.
	return newOpenAIClient(baseURL, "ollama")
}

// NewOpenAIClient creates a client for the OpenAI API.
// Returns an error if apiKey is empty.
func NewOpenAIClient(baseURL, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return newOpenAIClient(baseURL, apiKey), nil
}

func newOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retries are handled by Embedder.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

// Embed returns the embedding of text produced by model.
func (c *OpenAIClient) Embed(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return toFloat32(resp.Data[0].Embedding), nil
}

// Close is a no-op; the HTTP client holds no resources needing release.
func (c *OpenAIClient) Close() error {
	return nil
}

// toFloat32 converts []float64 to []float32.
// The API returns float64, but stores hold float32.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

// Package config loads settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/bull/pdfindex/internal/chunker"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Source documents
	SourceDir string `envconfig:"PDF_SOURCE_DIR" default:"./data"`
	Extension string `envconfig:"PDF_EXTENSION" default:".pdf"`
	Extractor string `envconfig:"PDF_EXTRACTOR" default:"native"`

	// Embeddings
	EmbeddingProvider   string `envconfig:"EMBEDDING_PROVIDER" default:"ollama"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"nomic-embed-text"`
	EmbeddingBaseURL    string `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingMaxRetries int    `envconfig:"EMBEDDING_MAX_RETRIES" default:"3"`
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey        string `envconfig:"GEMINI_API_KEY"`

	// Chunking
	ChunkSize     int    `envconfig:"CHUNK_SIZE" default:"300"`
	ChunkOverlap  int    `envconfig:"CHUNK_OVERLAP" default:"50"`
	ChunkIDScheme string `envconfig:"CHUNK_ID_SCHEME" default:"index"`

	// Vector store
	VectorStore     string `envconfig:"VECTOR_STORE" default:"chromem"`
	VectorDimension int    `envconfig:"VECTOR_DIMENSION" default:"768"`
	ChromaPath      string `envconfig:"CHROMA_PATH" default:"./chroma_db"`
	CollectionName  string `envconfig:"COLLECTION_NAME" default:"pdf_embeddings"`
	QdrantHost      string `envconfig:"QDRANT_HOST" default:"localhost"`
	QdrantPort      int    `envconfig:"QDRANT_PORT" default:"6334"`
	QdrantAPIKey    string `envconfig:"QDRANT_API_KEY"`

	// Query
	QueryTopK int    `envconfig:"QUERY_TOP_K" default:"5"`
	DemoQuery string `envconfig:"DEMO_QUERY" default:"What is the capital of France?"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// MCP server
	ServerMode bool `envconfig:"SERVER_MODE" default:"false"`
	Port       int  `envconfig:"PORT" default:"8080"`
}

// Load reads .env (if present) and the environment, then validates the result.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := chunker.Validate(c.ChunkSize, c.ChunkOverlap); err != nil {
		return err
	}
	if c.SourceDir == "" {
		return fmt.Errorf("%w: PDF_SOURCE_DIR is empty", ErrInvalidConfig)
	}
	if c.Extension == "" {
		return fmt.Errorf("%w: PDF_EXTENSION is empty", ErrInvalidConfig)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("%w: COLLECTION_NAME is empty", ErrInvalidConfig)
	}
	if c.VectorDimension <= 0 {
		return fmt.Errorf("%w: VECTOR_DIMENSION must be positive, got %d", ErrInvalidConfig, c.VectorDimension)
	}
	if c.QueryTopK <= 0 {
		return fmt.Errorf("%w: QUERY_TOP_K must be positive, got %d", ErrInvalidConfig, c.QueryTopK)
	}
	if c.EmbeddingMaxRetries < 0 {
		return fmt.Errorf("%w: EMBEDDING_MAX_RETRIES must not be negative", ErrInvalidConfig)
	}

	if err := oneOf("PDF_EXTRACTOR", c.Extractor, "native", "pdftotext"); err != nil {
		return err
	}
	if err := oneOf("EMBEDDING_PROVIDER", c.EmbeddingProvider, "ollama", "openai", "gemini"); err != nil {
		return err
	}
	if err := oneOf("VECTOR_STORE", c.VectorStore, "chromem", "qdrant"); err != nil {
		return err
	}
	if err := oneOf("CHUNK_ID_SCHEME", c.ChunkIDScheme, "index", "prefix", "hash"); err != nil {
		return err
	}
	if err := oneOf("LOG_FORMAT", c.LogFormat, "text", "json"); err != nil {
		return err
	}

	switch c.EmbeddingProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for the openai provider", ErrInvalidConfig)
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required for the gemini provider", ErrInvalidConfig)
		}
	}

	return nil
}

func oneOf(name, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%w: %s=%q, expected one of %v", ErrInvalidConfig, name, value, allowed)
}

package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bull/pdfindex/internal/chunker"
	"github.com/bull/pdfindex/internal/pdf"
	"github.com/bull/pdfindex/internal/storage"
)

// DefaultExtension selects which files in the source directory are ingested.
const DefaultExtension = ".pdf"

// ErrBackendUnavailable is returned when every selected document failed while
// embedding or storing, which points at the embedding service or the store.
var ErrBackendUnavailable = errors.New("embedding or storage backend unavailable")

// Stage names the step at which a document failed.
type Stage string

const (
	StageExtract Stage = "extract"
	StageEmbed   Stage = "embed"
	StageStore   Stage = "store"
)

// IndexResult contains statistics about an indexing operation.
type IndexResult struct {
	TotalDocs      int
	TotalChunks    int
	SuccessfulDocs int
	FailedDocs     []FailedDoc
	Duration       time.Duration
}

// FailedDoc represents a document that failed to index.
type FailedDoc struct {
	Path   string
	Stage  Stage
	Reason string
}

// Extractor returns the text of each page of a document.
type Extractor interface {
	ExtractPages(ctx context.Context, path string) ([]pdf.Page, error)
}

// Embedder turns chunk text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store persists records and can be emptied.
type Store interface {
	Upsert(ctx context.Context, rec *storage.Record) error
	Clear(ctx context.Context) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExtension sets the file suffix selecting documents. Matching is case-sensitive.
func WithExtension(ext string) Option {
	return func(p *Pipeline) {
		if ext != "" {
			p.extension = ext
		}
	}
}

// WithIDScheme sets how record identifiers are built.
func WithIDScheme(scheme IDScheme) Option {
	return func(p *Pipeline) {
		if scheme != "" {
			p.idScheme = scheme
		}
	}
}

// Pipeline orchestrates the full indexing process from extraction to storage.
type Pipeline struct {
	extractor Extractor
	chunker   *chunker.Chunker
	embedder  Embedder
	store     Store
	logger    *slog.Logger
	extension string
	idScheme  IDScheme
}

// NewPipeline creates a new indexing pipeline with the given components.
// A nil chunker uses the default window of 300 words with 50 words overlap.
func NewPipeline(
	extractor Extractor,
	chunk *chunker.Chunker,
	embedder Embedder,
	store Store,
	logger *slog.Logger,
	opts ...Option,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if chunk == nil {
		chunk = chunker.NewDefault()
	}
	p := &Pipeline{
		extractor: extractor,
		chunker:   chunk,
		embedder:  embedder,
		store:     store,
		logger:    logger,
		extension: DefaultExtension,
		idScheme:  IDSchemeIndex,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ClearIndex removes every record from the store.
func (p *Pipeline) ClearIndex(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	p.logger.Info("Cleared index")
	return nil
}

// IngestDir indexes every matching file in dir.
// Per-document failures are recorded in the result and do not stop the batch.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	files, err := p.listDocuments(dir)
	if err != nil {
		return nil, err
	}
	result.TotalDocs = len(files)
	p.logger.Info("Found documents", "dir", dir, "count", len(files))

	backendFailures := 0
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		chunks, stage, err := p.processDocument(ctx, dir, name)
		result.TotalChunks += chunks
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				result.Duration = time.Since(start)
				return result, ctxErr
			}
			p.logger.Warn("Failed to process document", "path", name, "stage", stage, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				Path:   name,
				Stage:  stage,
				Reason: err.Error(),
			})
			if stage != StageExtract {
				backendFailures++
			}
			continue // Skip failed docs, continue with others
		}
		result.SuccessfulDocs++
	}

	result.Duration = time.Since(start)
	p.logger.Info("Indexing complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)

	if result.TotalDocs > 0 && backendFailures == result.TotalDocs {
		return result, fmt.Errorf("%w: all %d documents failed", ErrBackendUnavailable, result.TotalDocs)
	}
	return result, nil
}

// listDocuments returns the names of regular files in dir with the configured
// extension, sorted by name. Symlinks are followed; broken links and links to
// directories are skipped.
func (p *Pipeline) listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), p.extension) {
			continue
		}
		if !isRegularFile(dir, entry) {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

func isRegularFile(dir string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// processDocument handles the full pipeline for a single document.
// Returns the number of chunks stored, including those stored before a failure.
func (p *Pipeline) processDocument(ctx context.Context, dir, name string) (int, Stage, error) {
	pages, err := p.extractor.ExtractPages(ctx, filepath.Join(dir, name))
	if err != nil {
		return 0, StageExtract, err
	}
	p.logger.Debug("Extracted document", "path", name, "pages", len(pages))

	stored := 0
	for _, page := range pages {
		for i, text := range p.chunker.Split(page.Text) {
			vector, err := p.embedder.Embed(ctx, text)
			if err != nil {
				return stored, StageEmbed, fmt.Errorf("embeddings: %w", err)
			}

			rec := &storage.Record{
				ID:        ChunkID(p.idScheme, name, page.Index, i, text),
				Embedding: vector,
				Metadata: map[string]string{
					storage.MetaFile:  name,
					storage.MetaPage:  strconv.Itoa(page.Index),
					storage.MetaChunk: text,
				},
			}
			if err := p.store.Upsert(ctx, rec); err != nil {
				return stored, StageStore, fmt.Errorf("store chunk: %w", err)
			}
			stored++
			p.logger.Info("Stored chunk", "path", name, "page", page.Index, "text", preview(text, prefixLength)+"...")
		}
	}

	p.logger.Info("Indexed document", "path", name, "pages", len(pages), "chunks", stored)
	return stored, "", nil
}

package storage

import "fmt"

// Metadata keys stored alongside every chunk embedding.
const (
	MetaFile  = "file"
	MetaPage  = "page"
	MetaChunk = "chunk"
)

// DefaultCollectionName is the collection holding all chunk embeddings.
const DefaultCollectionName = "pdf_embeddings"

// DefaultVectorDimension is the embedding size of nomic-embed-text.
const DefaultVectorDimension = 768

// Record is one chunk embedding as persisted in the vector store.
type Record struct {
	ID        string            // Stable identifier, primary key in the store
	Embedding []float32         // Fixed-dimension vector
	Metadata  map[string]string // file, page, chunk
}

// Result is a record returned by a nearest-neighbour query.
type Result struct {
	ID         string            `json:"id"`
	Metadata   map[string]string `json:"metadata"`
	Similarity float64           `json:"similarity"` // Higher is closer
}

// File returns the source document name of the result.
func (r Result) File() string { return r.Metadata[MetaFile] }

// Page returns the page index of the result as stored.
func (r Result) Page() string { return r.Metadata[MetaPage] }

// Chunk returns the chunk text of the result.
func (r Result) Chunk() string { return r.Metadata[MetaChunk] }

func validateRecord(rec *Record, dimension int) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidRecord
	}
	if len(rec.Embedding) != dimension {
		return fmt.Errorf("%w: record %s has %d dimensions, expected %d",
			ErrDimensionMismatch, rec.ID, len(rec.Embedding), dimension)
	}
	return nil
}

func copyMetadata(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Package chunker splits page text into overlapping word windows.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultChunkSize is the number of words per chunk.
	DefaultChunkSize = 300

	// DefaultOverlap is the number of words shared by consecutive chunks.
	DefaultOverlap = 50
)

// ErrInvalidConfiguration is returned when the chunk size and overlap do not
// produce a positive step between windows.
var ErrInvalidConfiguration = errors.New("invalid chunking configuration")

// Chunker splits text into word windows of a fixed size.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. The overlap must be smaller than the chunk size.
func New(size, overlap int) (*Chunker, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// NewDefault creates a Chunker with 300-word windows and a 50-word overlap.
func NewDefault() *Chunker {
	return &Chunker{size: DefaultChunkSize, overlap: DefaultOverlap}
}

// Validate reports whether size and overlap form a usable window.
func Validate(size, overlap int) error {
	switch {
	case size <= 0:
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfiguration, size)
	case overlap < 0:
		return fmt.Errorf("%w: overlap %d must not be negative", ErrInvalidConfiguration, overlap)
	case overlap >= size:
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidConfiguration, overlap, size)
	}
	return nil
}

// Size returns the window size in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of words shared by neighbouring windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the chunks of text in order. Text without words yields nil.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := min(start+c.size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// Split is a one-shot helper around New and Chunker.Split.
func Split(text string, size, overlap int) ([]string, error) {
	c, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}

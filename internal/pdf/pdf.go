// Package pdf extracts plain text from PDF files one page at a time.
package pdf

import (
	"context"
	"errors"
)

// ErrExtractionFailed wraps every failure to open or parse a PDF.
var ErrExtractionFailed = errors.New("pdf extraction failed")

// Page is the text of one PDF page.
type Page struct {
	Index int    // Zero-based page number
	Text  string // Raw extracted text, may be empty
}

// Extractor returns the pages of a PDF in order, starting at index 0.
type Extractor interface {
	ExtractPages(ctx context.Context, path string) ([]Page, error)
}

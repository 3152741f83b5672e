package pdf

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var _ Extractor = (*Reader)(nil)

// Reader extracts text with a pure-Go PDF parser. No external tools needed.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// ExtractPages reads every page of the file at path.
// Pages that carry no content object come back with empty text so the page
// numbering stays aligned with the document.
func (r *Reader) ExtractPages(ctx context.Context, path string) (pages []Page, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: parser panic: %v", ErrExtractionFailed, path, rec)
		}
	}()

	f, doc, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrExtractionFailed, path, err)
	}
	defer f.Close()

	total := doc.NumPage()
	pages = make([]Page, 0, total)
	fonts := make(map[string]*pdf.Font)

	// The parser numbers pages from 1.
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := doc.Page(i)
		if p.V.IsNull() || p.V.Key("Contents").IsNull() {
			pages = append(pages, Page{Index: i - 1})
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}

		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %v", ErrExtractionFailed, path, i-1, err)
		}
		pages = append(pages, Page{Index: i - 1, Text: text})
	}

	return pages, nil
}

package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var _ Extractor = (*Pdftotext)(nil)

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Pdftotext extracts text with poppler's pdftotext binary.
// It keeps layout better than the pure-Go reader on multi-column documents.
type Pdftotext struct {
	runner CommandRunner
	binary string
}

// NewPdftotext creates an extractor that shells out to pdftotext on PATH.
func NewPdftotext() *Pdftotext {
	return NewPdftotextWithRunner(execRunner{})
}

// NewPdftotextWithRunner creates an extractor with a custom command runner.
func NewPdftotextWithRunner(runner CommandRunner) *Pdftotext {
	return &Pdftotext{runner: runner, binary: "pdftotext"}
}

// ExtractPages runs pdftotext over the whole file and splits its output on
// the form feed it writes after every page.
func (p *Pdftotext) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	out, err := p.runner.Run(ctx, p.binary, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not installed\n%s", ErrExtractionFailed, p.binary, InstallInstructions())
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrExtractionFailed, path, err)
	}

	return splitPages(string(out)), nil
}

// splitPages turns form-feed separated text into pages.
func splitPages(out string) []Page {
	parts := strings.Split(out, "\f")
	// pdftotext terminates the last page with a form feed as well.
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	pages := make([]Page, len(parts))
	for i, text := range parts {
		pages[i] = Page{Index: i, Text: text}
	}
	return pages
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `pdftotext is part of poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

package parser

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/offlinerag/ragcore/internal/chunking"
	"github.com/offlinerag/ragcore/internal/domain/ports"
)

// TextExtractor reads a plain-text file whole, validates it as UTF-8, and
// returns it as a single normalized page.
type TextExtractor struct{}

// NewTextExtractor returns a ready-to-use TextExtractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Supports reports whether ext is handled by TextExtractor (anything that
// isn't a recognized binary format).
func (e *TextExtractor) Supports(ext string) bool {
	switch ext {
	case ".pdf":
		return false
	default:
		return true
	}
}

// Extract reads path whole and returns it as a single-page document.
func (e *TextExtractor) Extract(ctx context.Context, path string) (ports.ExtractedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ports.ExtractedDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		return ports.ExtractedDocument{}, fmt.Errorf("%s is not valid UTF-8", path)
	}
	return ports.ExtractedDocument{NumPages: 1, Pages: []string{chunking.Normalize(string(raw))}}, nil
}

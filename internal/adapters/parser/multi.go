package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/offlinerag/ragcore/internal/domain/ports"
)

// MultiExtractor dispatches extraction to the first registered extractor
// that supports the file's extension, mirroring the teacher's MultiLoader.
type MultiExtractor struct {
	extractors []ports.DocumentExtractor
}

// NewMultiExtractor builds the default PDF+text dispatcher.
func NewMultiExtractor() *MultiExtractor {
	return &MultiExtractor{extractors: []ports.DocumentExtractor{
		NewPDFExtractor(),
		NewTextExtractor(),
	}}
}

// Supports reports whether any registered extractor handles ext.
func (m *MultiExtractor) Supports(ext string) bool {
	for _, e := range m.extractors {
		if e.Supports(ext) {
			return true
		}
	}
	return false
}

// Extract dispatches to the extractor matching path's extension.
func (m *MultiExtractor) Extract(ctx context.Context, path string) (ports.ExtractedDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range m.extractors {
		if e.Supports(ext) {
			return e.Extract(ctx, path)
		}
	}
	return ports.ExtractedDocument{}, fmt.Errorf("no extractor registered for %s", ext)
}

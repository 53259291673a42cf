// Package parser implements document extraction (C3): native PDF text
// extraction and plain-text passthrough, dispatched by file extension.
package parser

import (
	"context"
	"fmt"

	"github.com/dslipak/pdf"

	"github.com/offlinerag/ragcore/internal/chunking"
	"github.com/offlinerag/ragcore/internal/domain/ports"
)

// PDFExtractor extracts normalized per-page text from a PDF using
// github.com/dslipak/pdf, a pure-Go parser requiring no external process.
type PDFExtractor struct{}

// NewPDFExtractor returns a ready-to-use PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Supports reports whether ext is ".pdf" (case handled by the caller).
func (e *PDFExtractor) Supports(ext string) bool {
	return ext == ".pdf"
}

// Extract opens path and returns one normalized text page per PDF page. A
// page that fails to decode yields an empty page rather than aborting the
// whole document, since a single malformed page is common in scanned PDFs;
// the empty entry keeps pages[i] aligned with PDF page i+1.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (ports.ExtractedDocument, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return ports.ExtractedDocument{}, fmt.Errorf("open %s: %w", path, err)
	}

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	decoded := 0
	for i := 1; i <= numPages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, chunking.Normalize(text))
		decoded++
	}

	if decoded == 0 {
		return ports.ExtractedDocument{}, fmt.Errorf("no extractable pages in %s", path)
	}

	return ports.ExtractedDocument{NumPages: len(pages), Pages: pages}, nil
}

// Package usecases contains application business rules: ingestion, question
// answering, and import/export/reindex. They depend only on domain/ports
// interfaces, never on a concrete adapter, logging library, or transport.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/offlinerag/ragcore/internal/chunking"
	"github.com/offlinerag/ragcore/internal/domain/entities"
	"github.com/offlinerag/ragcore/internal/domain/ports"
	"github.com/offlinerag/ragcore/internal/events"
)

// embedBatchSize is how many chunk texts are sent to the Embedder per call.
const embedBatchSize = 8

// Ingestor orchestrates document ingestion: extract, chunk, embed, store.
// Single responsibility: only the ingestion pipeline.
type Ingestor struct {
	embedder ports.Embedder
	extractor ports.DocumentExtractor
	store    ports.Store
	index    ports.VectorIndex
	bus      *events.Bus

	chunkSize    int
	chunkOverlap int
}

// NewIngestor wires an Ingestor from its ports. Adapters are injected, never
// constructed here.
func NewIngestor(
	embedder ports.Embedder,
	extractor ports.DocumentExtractor,
	store ports.Store,
	index ports.VectorIndex,
	bus *events.Bus,
	chunkSize, chunkOverlap int,
) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = chunking.DefaultSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = chunking.DefaultOverlap
	}
	return &Ingestor{
		embedder:     embedder,
		extractor:    extractor,
		store:        store,
		index:        index,
		bus:          bus,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// FileResult reports the outcome of ingesting a single file.
type FileResult struct {
	Path  string
	DocID string
	Err   error
}

// IngestFiles ingests each path in order, isolating per-file failures: one
// bad file does not abort the rest of the list. The CLI ingest command, the
// HTTP /api/documents handler, and the inbox watcher all call this.
func (uc *Ingestor) IngestFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, 0, len(paths))
	n := len(paths)
	for i, path := range paths {
		base := float64(i) / float64(n)
		span := 1.0 / float64(n)
		docID, err := uc.ingestOne(ctx, path, base, span)
		results = append(results, FileResult{Path: path, DocID: docID, Err: err})
	}
	return results
}

// ingestOne implements spec steps 1-7 for a single file.
func (uc *Ingestor) ingestOne(ctx context.Context, path string, base, span float64) (string, error) {
	if err := uc.embedder.Ensure(ctx); err != nil {
		return "", fmt.Errorf("ingest %s: %w: %v", path, ErrEmbed, err)
	}

	extracted, err := uc.extractor.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("ingest %s: %w: %v", path, ErrExtract, err)
	}

	docID := uuid.NewString()
	docName := filepathBase(path)
	doc := entities.Document{
		ID:        docID,
		Name:      docName,
		MimeType:  mimeTypeForPath(path),
		SizeBytes: fileSize(path),
		AddedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	var chunks []entities.Chunk
	for page, text := range extracted.Pages {
		windows := chunking.Chunk(text, uc.chunkSize, uc.chunkOverlap)
		for ordinal, w := range windows {
			chunks = append(chunks, entities.Chunk{
				ID:      entities.NewChunkID(docID, page+1, ordinal),
				DocID:   docID,
				DocName: docName,
				Page:    page + 1,
				Ordinal: ordinal,
				Text:    w,
			})
		}
	}

	if len(chunks) == 0 {
		if err := uc.store.PutDocuments(ctx, []entities.Document{doc}); err != nil {
			return "", fmt.Errorf("ingest %s: %w: %v", path, ErrStorage, err)
		}
		uc.bus.Publish(events.Event{Kind: events.KindDocsChanged})
		return docID, nil
	}

	if err := uc.embedChunks(ctx, chunks, base, span); err != nil {
		return "", fmt.Errorf("ingest %s: %w: %v", path, ErrEmbed, err)
	}

	uc.index.Add(chunks...)

	if err := uc.store.PutDocuments(ctx, []entities.Document{doc}); err != nil {
		uc.index.Remove(docID)
		return "", fmt.Errorf("ingest %s: %w: %v", path, ErrStorage, err)
	}
	if err := uc.store.PutChunks(ctx, chunks); err != nil {
		uc.index.Remove(docID)
		return "", fmt.Errorf("ingest %s: %w: %v", path, ErrStorage, err)
	}

	uc.bus.Publish(events.Event{Kind: events.KindDocsChanged})
	return docID, nil
}

// embedChunks assigns embeddings to chunks in place, batching embedBatchSize
// at a time and reporting progress base + span*(processed/total).
func (uc *Ingestor) embedChunks(ctx context.Context, chunks []entities.Chunk, base, span float64) error {
	total := len(chunks)
	processed := 0
	for start := 0; start < total; start += embedBatchSize {
		end := start + embedBatchSize
		if end > total {
			end = total
		}
		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = chunks[i].Text
		}

		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		for i := start; i < end; i++ {
			chunks[i].Embedding = vectors[i-start]
		}

		processed = end
		uc.bus.Progress(base + span*(float64(processed)/float64(total)))
	}
	return nil
}

package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/offlinerag/ragcore/internal/domain/entities"
	"github.com/offlinerag/ragcore/internal/domain/ports"
	"github.com/offlinerag/ragcore/internal/events"
)

const exportVersion = 1

// Reindexer implements export, import, and bulk re-embedding of the corpus.
type Reindexer struct {
	embedder ports.Embedder
	store    ports.Store
	index    ports.VectorIndex
	bus      *events.Bus
}

// NewReindexer wires a Reindexer from its ports.
func NewReindexer(embedder ports.Embedder, store ports.Store, index ports.VectorIndex, bus *events.Bus) *Reindexer {
	return &Reindexer{embedder: embedder, store: store, index: index, bus: bus}
}

// Export strips embeddings from every chunk (they are reproducible from
// text and would otherwise bloat the output) and returns the payload.
func (uc *Reindexer) Export(ctx context.Context) (entities.ExportPayload, error) {
	docs, err := uc.store.GetAllDocuments(ctx)
	if err != nil {
		return entities.ExportPayload{}, fmt.Errorf("export: %w: %v", ErrStorage, err)
	}
	chunks, err := uc.store.GetAllChunks(ctx)
	if err != nil {
		return entities.ExportPayload{}, fmt.Errorf("export: %w: %v", ErrStorage, err)
	}

	exportChunks := make([]entities.ExportChunk, len(chunks))
	for i, c := range chunks {
		exportChunks[i] = entities.ExportChunk{
			ID: c.ID, DocID: c.DocID, DocName: c.DocName, Page: c.Page, Text: c.Text,
		}
	}

	return entities.ExportPayload{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Docs:       docs,
		Chunks:     exportChunks,
	}, nil
}

// importDoc mirrors the JSON shape of an export payload, used only to
// validate the version and the presence of both arrays before anything is
// cleared.
type importDoc struct {
	Version *int                    `json:"version"`
	Docs    *[]entities.Document    `json:"docs"`
	Chunks  *[]entities.ExportChunk `json:"chunks"`
}

// Import atomically replaces the corpus: it clears the Store, writes the
// imported docs/chunks (embeddings absent), and replaces in-memory state.
// A payload missing either array, or carrying a version other than 1, fails
// with ImportFormatError before anything is cleared. A payload with no
// version field is accepted.
func (uc *Reindexer) Import(ctx context.Context, raw []byte) error {
	var parsed importDoc
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("import: %w: %v", ErrImportFormat, err)
	}
	if parsed.Version != nil && *parsed.Version != exportVersion {
		return fmt.Errorf("import: %w: unsupported version %d", ErrImportFormat, *parsed.Version)
	}
	if parsed.Docs == nil || parsed.Chunks == nil {
		return fmt.Errorf("import: %w: missing docs or chunks array", ErrImportFormat)
	}

	chunks := make([]entities.Chunk, len(*parsed.Chunks))
	for i, c := range *parsed.Chunks {
		chunks[i] = entities.Chunk{
			ID: c.ID, DocID: c.DocID, DocName: c.DocName, Page: c.Page, Text: c.Text,
		}
	}

	if err := uc.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("import: %w: %v", ErrStorage, err)
	}
	if err := uc.store.PutDocuments(ctx, *parsed.Docs); err != nil {
		return fmt.Errorf("import: %w: %v", ErrStorage, err)
	}
	if err := uc.store.PutChunks(ctx, chunks); err != nil {
		return fmt.Errorf("import: %w: %v", ErrStorage, err)
	}

	uc.index.ReplaceAll(chunks)
	uc.bus.Publish(events.Event{Kind: events.KindDocsChanged})
	return nil
}

// ReindexAll re-embeds every chunk in batches of embedBatchSize, reporting
// progress as 0.05 + 0.95*(done/total). A no-op on an empty corpus.
func (uc *Reindexer) ReindexAll(ctx context.Context) error {
	chunks, err := uc.store.GetAllChunks(ctx)
	if err != nil {
		return fmt.Errorf("reindex: %w: %v", ErrStorage, err)
	}
	total := len(chunks)
	if total == 0 {
		return nil
	}

	if err := uc.embedder.Ensure(ctx); err != nil {
		return fmt.Errorf("reindex: %w: %v", ErrEmbed, err)
	}

	done := 0
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
			return fmt.Errorf("reindex: %w: %v", ErrEmbed, err)
		}
		for i := start; i < end; i++ {
			chunks[i].Embedding = vectors[i-start]
			uc.index.UpdateEmbedding(chunks[i].ID, vectors[i-start])
		}

		done = end
		uc.bus.Progress(0.05 + 0.95*(float64(done)/float64(total)))
	}

	if err := uc.store.PutChunks(ctx, chunks); err != nil {
		return fmt.Errorf("reindex: %w: %v", ErrStorage, err)
	}
	return nil
}

// Package ports defines the interfaces usecases depend on. Usecases know
// nothing about Ollama, SQLite, or PDF parsing — only these boundaries.
// Adapters implement them. Dependency Inversion, strictly.
package ports

import (
	"context"

	"github.com/offlinerag/ragcore/internal/domain/entities"
)

// Embedder lazily loads a local embedding model and encodes text batches
// into unit-norm vectors. Callers serialize calls; at most one batch is in
// flight at a time.
type Embedder interface {
	// Ensure loads the embedding model if it is not already loaded.
	Ensure(ctx context.Context) error
	// Embed encodes texts into unit-norm vectors, preserving order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Ready reports whether the model is currently loaded.
	Ready() bool
}

// ProgressEvent reports fractional progress during a long-running load.
type ProgressEvent struct {
	Progress float64 // 0..1
	Text     string
}

// GenerateOptions configures a single streaming generation call.
type GenerateOptions struct {
	Temperature float64
}

// StreamChunk is one item from a Generator's stream: either a content delta
// or, terminally, an error that aborted the stream early. A chunk carrying
// Err is always the last one sent before the channel closes.
type StreamChunk struct {
	Text string
	Err  error
}

// Generator lazily, explicitly loads a local generative model and streams
// chat completions. Unlike Embedder it never auto-loads.
type Generator interface {
	// Load loads modelID, requires GPU support, and reports download/warmup
	// progress through onProgress. The generator remains unloaded on failure.
	Load(ctx context.Context, modelID string, onProgress func(ProgressEvent)) error
	// Ready reports whether a model is currently loaded.
	Ready() bool
	// Stream streams completion deltas for messages. A second call while one
	// is in flight fails with a GenerateError; there is no queueing. A fault
	// partway through the stream (e.g. a transport read error) is reported
	// as a final StreamChunk carrying Err rather than being silently dropped.
	Stream(ctx context.Context, messages []entities.Message, opts GenerateOptions) (<-chan StreamChunk, error)
}

// Store is the durable key-addressed collection described in spec §4.1:
// two logical collections, docs and chunks, with bulk put / get-all / clear.
type Store interface {
	PutDocuments(ctx context.Context, docs []entities.Document) error
	PutChunks(ctx context.Context, chunks []entities.Chunk) error
	GetAllDocuments(ctx context.Context) ([]entities.Document, error)
	GetAllChunks(ctx context.Context) ([]entities.Chunk, error)
	ClearAll(ctx context.Context) error
}

// ExtractedDocument is the per-page text yielded by a DocumentExtractor.
type ExtractedDocument struct {
	NumPages int
	Pages    []string // already normalized, pages[i] is 1-based page i+1
}

// DocumentExtractor pulls per-page text out of a source file.
type DocumentExtractor interface {
	Extract(ctx context.Context, path string) (ExtractedDocument, error)
	// Supports reports whether this extractor handles the given extension
	// (including the leading dot, lower-cased).
	Supports(ext string) bool
}

// VectorIndex is the in-memory, read-synchronized mirror of the store's
// chunks described in spec §4.6. No approximate nearest-neighbor structure —
// brute-force scan, by design, for personal-scale corpora.
type VectorIndex interface {
	// ReplaceAll discards the current contents and loads chunks in the given
	// order (insertion order for topK's stable tie-break).
	ReplaceAll(chunks []entities.Chunk)
	// Add appends chunks, preserving call order for the tie-break.
	Add(chunks ...entities.Chunk)
	// UpdateEmbedding assigns a chunk's vector in place (used by re-index).
	UpdateEmbedding(id string, embedding []float32)
	// Remove drops every chunk in the in-memory append for the given doc.
	Remove(docID string)
	// Clear empties the index.
	Clear()
	// Len returns the total number of chunks currently indexed, embedded or
	// not — a size/progress projection, not a readiness signal.
	Len() int
	// EmbeddedLen returns the number of chunks currently carrying an
	// embedding. Callers gating on "is there a usable corpus" (e.g. the QA
	// pipeline's NoCorpus precondition) must use this, not Len.
	EmbeddedLen() int
	// TopK returns at most k chunks ranked by descending dot product with q.
	TopK(q []float32, k int) []entities.RetrievedChunk
	// All returns every indexed chunk (embedded or not) in insertion order.
	All() []entities.Chunk
}

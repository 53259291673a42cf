// Package entities contains the core business objects of the RAG pipeline.
// These are pure data holders with no knowledge of storage, embedding
// runtimes, or transport — the enterprise business rules of Clean
// Architecture.
package entities

import "fmt"

// Document is a source file the user has added to the corpus.
type Document struct {
	ID        string
	Name      string
	MimeType  string
	SizeBytes int64
	AddedAt   string // RFC3339 UTC
}

// Chunk is a bounded, normalized slice of a document's text, the unit of
// retrieval. Embedding is nil when the chunk has not yet been indexed.
type Chunk struct {
	ID      string
	DocID   string
	DocName string
	Page    int // 1-based; always 1 for plain text
	Ordinal int // 0-based position within the page
	Text    string
	Embedding []float32
}

// NewChunkID builds the deterministic composite chunk ID described by the
// data model: "{docId}|p{page}|c{ordinal}".
func NewChunkID(docID string, page, ordinal int) string {
	return fmt.Sprintf("%s|p%d|c%d", docID, page, ordinal)
}

// RetrievedChunk pairs a chunk with its similarity score against a query.
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
}

// Role identifies the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the QA transcript.
type Message struct {
	ID      string
	Role    Role
	Content string
	Meta    *MessageMeta
}

// MessageMeta carries post-generation annotations: parsed citations, a
// non-fatal grounding warning, and (optionally) the full retrieved-context
// panel for display.
type MessageMeta struct {
	Citations []int
	Warning   string
	Context   []ContextEntry
}

// ContextEntry is one retrieved chunk as shown in the collapsible context
// panel, annotated with whether the answer actually cited it.
type ContextEntry struct {
	Chunk RetrievedChunk
	Used  bool
}

// ExportChunk is a Chunk with its embedding stripped, the on-disk shape of
// the export file format.
type ExportChunk struct {
	ID      string
	DocID   string
	DocName string
	Page    int
	Text    string
}

// ExportPayload is the bit-level export file contract: version 1, a
// timestamp, and the full document/chunk set with embeddings omitted.
type ExportPayload struct {
	Version    int           `json:"version"`
	ExportedAt string        `json:"exportedAt"`
	Docs       []Document    `json:"docs"`
	Chunks     []ExportChunk `json:"chunks"`
}

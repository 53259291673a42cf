// Package store persists documents and chunks in a local SQLite database
// (C1). Embeddings are packed as little-endian float32 BLOBs rather than
// JSON-boxed per element, keeping the on-disk footprint proportional to the
// vector dimension.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/offlinerag/ragcore/internal/domain/entities"
)

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("store: could not create data dir: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    mime_type  TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    added_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
    id         TEXT PRIMARY KEY,
    doc_id     TEXT NOT NULL,
    doc_name   TEXT NOT NULL,
    page       INTEGER NOT NULL,
    ordinal    INTEGER NOT NULL,
    text       TEXT NOT NULL,
    embedding  BLOB,
    seq        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks (doc_id);
CREATE INDEX IF NOT EXISTS idx_chunks_seq ON chunks (seq);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutDocuments upserts documents inside a single transaction.
func (s *SQLiteStore) PutDocuments(ctx context.Context, docs []entities.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: putDocuments begin: %w", err)
	}
	defer tx.Rollback()

	const q = `
INSERT INTO documents (id, name, mime_type, size_bytes, added_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name, mime_type = excluded.mime_type,
    size_bytes = excluded.size_bytes, added_at = excluded.added_at`

	for _, d := range docs {
		if _, err := tx.ExecContext(ctx, q, d.ID, d.Name, d.MimeType, d.SizeBytes, d.AddedAt); err != nil {
			return fmt.Errorf("store: putDocuments: %w", err)
		}
	}
	return tx.Commit()
}

// PutChunks upserts chunks inside a single transaction, assigning each a
// fresh monotonic seq so GetAllChunks restores insertion order after a
// restart.
func (s *SQLiteStore) PutChunks(ctx context.Context, chunks []entities.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: putChunks begin: %w", err)
	}
	defer tx.Rollback()

	var nextSeq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM chunks`).Scan(&nextSeq); err != nil {
		return fmt.Errorf("store: putChunks seq: %w", err)
	}

	const q = `
INSERT INTO chunks (id, doc_id, doc_name, page, ordinal, text, embedding, seq)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    doc_name = excluded.doc_name, page = excluded.page, ordinal = excluded.ordinal,
    text = excluded.text, embedding = excluded.embedding`

	for i, c := range chunks {
		blob := encodeEmbedding(c.Embedding)
		if _, err := tx.ExecContext(ctx, q, c.ID, c.DocID, c.DocName, c.Page, c.Ordinal, c.Text, blob, nextSeq+int64(i)); err != nil {
			return fmt.Errorf("store: putChunks: %w", err)
		}
	}
	return tx.Commit()
}

// GetAllDocuments returns every stored document.
func (s *SQLiteStore) GetAllDocuments(ctx context.Context) ([]entities.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, mime_type, size_bytes, added_at FROM documents ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("store: getAllDocuments: %w", err)
	}
	defer rows.Close()

	var docs []entities.Document
	for rows.Next() {
		var d entities.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.MimeType, &d.SizeBytes, &d.AddedAt); err != nil {
			return nil, fmt.Errorf("store: getAllDocuments scan: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetAllChunks returns every stored chunk ordered by seq, restoring the
// original insertion order for the vector index's stable tie-break.
func (s *SQLiteStore) GetAllChunks(ctx context.Context) ([]entities.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, doc_id, doc_name, page, ordinal, text, embedding FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("store: getAllChunks: %w", err)
	}
	defer rows.Close()

	var chunks []entities.Chunk
	for rows.Next() {
		var c entities.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocID, &c.DocName, &c.Page, &c.Ordinal, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("store: getAllChunks scan: %w", err)
		}
		c.Embedding = decodeEmbedding(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ClearAll deletes every document and chunk, chunks first so a crash between
// the two transactions never leaves an orphaned chunk referencing a deleted
// document.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("store: clearAll chunks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("store: clearAll documents: %w", err)
	}
	return nil
}

// encodeEmbedding packs a float32 vector as little-endian bytes. A nil
// vector encodes to a nil BLOB.
func encodeEmbedding(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeEmbedding reverses encodeEmbedding. An empty/nil BLOB decodes to nil.
func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

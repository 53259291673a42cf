package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/offlinerag/ragcore/internal/domain/entities"
	"github.com/offlinerag/ragcore/internal/domain/ports"
	"github.com/offlinerag/ragcore/internal/domain/usecases"
	"github.com/offlinerag/ragcore/internal/events"
	"github.com/offlinerag/ragcore/internal/logging"
	"github.com/offlinerag/ragcore/internal/vectorindex"
)

type stubEmbedder struct{ ready bool }

func (s *stubEmbedder) Ensure(ctx context.Context) error { s.ready = true; return nil }
func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}
func (s *stubEmbedder) Ready() bool { return s.ready }

type stubGenerator struct{ ready bool }

func (s *stubGenerator) Load(ctx context.Context, modelID string, onProgress func(ports.ProgressEvent)) error {
	if onProgress != nil {
		onProgress(ports.ProgressEvent{Progress: 1, Text: "done"})
	}
	s.ready = true
	return nil
}
func (s *stubGenerator) Ready() bool { return s.ready }
func (s *stubGenerator) Stream(ctx context.Context, messages []entities.Message, opts ports.GenerateOptions) (<-chan ports.StreamChunk, error) {
	ch := make(chan ports.StreamChunk, 1)
	ch <- ports.StreamChunk{Text: "ok [출처] [C1]"}
	close(ch)
	return ch, nil
}

type stubStore struct {
	docs   []entities.Document
	chunks []entities.Chunk
}

func (s *stubStore) PutDocuments(ctx context.Context, docs []entities.Document) error {
	s.docs = append(s.docs, docs...)
	return nil
}
func (s *stubStore) PutChunks(ctx context.Context, chunks []entities.Chunk) error {
	s.chunks = append(s.chunks, chunks...)
	return nil
}
func (s *stubStore) GetAllDocuments(ctx context.Context) ([]entities.Document, error) { return s.docs, nil }
func (s *stubStore) GetAllChunks(ctx context.Context) ([]entities.Chunk, error)        { return s.chunks, nil }
func (s *stubStore) ClearAll(ctx context.Context) error {
	s.docs = nil
	s.chunks = nil
	return nil
}

func newTestServer() *Server {
	idx := vectorindex.New()
	idx.Add(entities.Chunk{ID: "c1", DocID: "d1", DocName: "a.pdf", Page: 1, Embedding: []float32{1, 0}})
	bus := events.New()
	store := &stubStore{}
	emb := &stubEmbedder{}
	gen := &stubGenerator{ready: true}

	asker := usecases.NewAsker(emb, gen, idx, bus, 6)
	reindexer := usecases.NewReindexer(emb, store, idx, bus)
	ingestor := usecases.NewIngestor(emb, nil, store, idx, bus, 1200, 200)

	return New(ingestor, asker, reindexer, emb, gen, idx, bus, logging.NewDefault())
}

func TestHandleHealth_ReturnsOK(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleStatus_ReportsIndexAndReadiness(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var body map[string]any
	json.NewDecoder(rec.Body).Decode(&body)
	if body["chunkCount"].(float64) != 1 {
		t.Errorf("expected chunkCount 1, got %v", body["chunkCount"])
	}
	if body["generatorReady"] != true {
		t.Errorf("expected generatorReady true, got %v", body["generatorReady"])
	}
}

func TestHandleAsk_ReturnsMessageWithCitations(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(map[string]any{"question": "what is it", "strict": false, "showContext": true})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAsk_NoCorpusReturnsConflict(t *testing.T) {
	idx := vectorindex.New() // empty
	bus := events.New()
	emb := &stubEmbedder{}
	gen := &stubGenerator{ready: true}
	asker := usecases.NewAsker(emb, gen, idx, bus, 6)
	reindexer := usecases.NewReindexer(emb, &stubStore{}, idx, bus)
	ingestor := usecases.NewIngestor(emb, nil, &stubStore{}, idx, bus, 1200, 200)
	s := New(ingestor, asker, reindexer, emb, gen, idx, bus, logging.NewDefault())

	body, _ := json.Marshal(map[string]any{"question": "what is it"})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestHandleExport_ReturnsPayload(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleImport_BadFormatReturnsBadRequest(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

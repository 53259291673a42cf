package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/offlinerag/ragcore/internal/domain/entities"
	"github.com/offlinerag/ragcore/internal/domain/ports"
	"github.com/offlinerag/ragcore/internal/events"
)

type fakeEmbedder struct {
	ensureErr error
	embedErr  error
	ready     bool
	calls     int
}

func (f *fakeEmbedder) Ensure(ctx context.Context) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ready = true
	return nil
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Ready() bool { return f.ready }

type fakeExtractor struct {
	pages []string
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (ports.ExtractedDocument, error) {
	if f.err != nil {
		return ports.ExtractedDocument{}, f.err
	}
	return ports.ExtractedDocument{NumPages: len(f.pages), Pages: f.pages}, nil
}

func (f *fakeExtractor) Supports(ext string) bool { return true }

type fakeStore struct {
	docs      []entities.Document
	chunks    []entities.Chunk
	putDocErr error
	putChErr  error
}

func (f *fakeStore) PutDocuments(ctx context.Context, docs []entities.Document) error {
	if f.putDocErr != nil {
		return f.putDocErr
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeStore) PutChunks(ctx context.Context, chunks []entities.Chunk) error {
	if f.putChErr != nil {
		return f.putChErr
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeStore) GetAllDocuments(ctx context.Context) ([]entities.Document, error) {
	return f.docs, nil
}

func (f *fakeStore) GetAllChunks(ctx context.Context) ([]entities.Chunk, error) {
	return f.chunks, nil
}

func (f *fakeStore) ClearAll(ctx context.Context) error {
	f.docs = nil
	f.chunks = nil
	return nil
}

type fakeIndex struct {
	chunks []entities.Chunk
}

func (f *fakeIndex) ReplaceAll(chunks []entities.Chunk) { f.chunks = chunks }
func (f *fakeIndex) Add(chunks ...entities.Chunk)       { f.chunks = append(f.chunks, chunks...) }
func (f *fakeIndex) UpdateEmbedding(id string, embedding []float32) {
	for i := range f.chunks {
		if f.chunks[i].ID == id {
			f.chunks[i].Embedding = embedding
		}
	}
}
func (f *fakeIndex) Remove(docID string) {
	var kept []entities.Chunk
	for _, c := range f.chunks {
		if c.DocID != docID {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
}
func (f *fakeIndex) Clear()   { f.chunks = nil }
func (f *fakeIndex) Len() int { return len(f.chunks) }
func (f *fakeIndex) EmbeddedLen() int {
	n := 0
	for _, c := range f.chunks {
		if c.Embedding != nil {
			n++
		}
	}
	return n
}
func (f *fakeIndex) All() []entities.Chunk { return f.chunks }
func (f *fakeIndex) TopK(q []float32, k int) []entities.RetrievedChunk { return nil }

func TestIngestOne_HappyPath(t *testing.T) {
	emb := &fakeEmbedder{}
	ext := &fakeExtractor{pages: []string{
		"this is a reasonably long page of text that will survive the minimum chunk size threshold easily",
	}}
	store := &fakeStore{}
	idx := &fakeIndex{}
	bus := events.New()

	uc := NewIngestor(emb, ext, store, idx, bus, 1200, 200)

	docID, err := uc.ingestOne(context.Background(), "doc.txt", 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docID == "" {
		t.Fatal("expected a non-empty docID")
	}
	if len(store.docs) != 1 {
		t.Fatalf("expected 1 document stored, got %d", len(store.docs))
	}
	if len(store.chunks) == 0 {
		t.Fatal("expected chunks stored")
	}
	if idx.Len() != len(store.chunks) {
		t.Errorf("index length %d != store chunks %d", idx.Len(), len(store.chunks))
	}
	for _, c := range idx.chunks {
		if c.Embedding == nil {
			t.Error("expected every indexed chunk to carry an embedding")
		}
	}
}

func TestIngestOne_EmbedderEnsureFails(t *testing.T) {
	emb := &fakeEmbedder{ensureErr: errors.New("no model")}
	ext := &fakeExtractor{pages: []string{"irrelevant"}}
	uc := NewIngestor(emb, ext, &fakeStore{}, &fakeIndex{}, events.New(), 1200, 200)

	_, err := uc.ingestOne(context.Background(), "doc.txt", 0, 1)
	if !errors.Is(err, ErrEmbed) {
		t.Errorf("expected ErrEmbed, got %v", err)
	}
}

func TestIngestOne_ExtractFails(t *testing.T) {
	emb := &fakeEmbedder{}
	ext := &fakeExtractor{err: errors.New("corrupt")}
	uc := NewIngestor(emb, ext, &fakeStore{}, &fakeIndex{}, events.New(), 1200, 200)

	_, err := uc.ingestOne(context.Background(), "doc.pdf", 0, 1)
	if !errors.Is(err, ErrExtract) {
		t.Errorf("expected ErrExtract, got %v", err)
	}
}

func TestIngestOne_StoreFailureRollsBackIndex(t *testing.T) {
	emb := &fakeEmbedder{}
	ext := &fakeExtractor{pages: []string{
		"this is a reasonably long page of text that will survive the minimum chunk size threshold easily",
	}}
	store := &fakeStore{putChErr: errors.New("disk full")}
	idx := &fakeIndex{}
	uc := NewIngestor(emb, ext, store, idx, events.New(), 1200, 200)

	_, err := uc.ingestOne(context.Background(), "doc.txt", 0, 1)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected index rollback on store failure, still has %d chunks", idx.Len())
	}
}

func TestIngestFiles_IsolatesPerFileFailure(t *testing.T) {
	emb := &fakeEmbedder{}
	ext := &fakeExtractor{pages: []string{
		"this is a reasonably long page of text that will survive the minimum chunk size threshold easily",
	}}
	store := &fakeStore{}
	idx := &fakeIndex{}
	uc := NewIngestor(emb, ext, store, idx, events.New(), 1200, 200)

	results := uc.IngestFiles(context.Background(), []string{"a.txt", "b.txt"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("unexpected error for %s: %v", r.Path, r.Err)
		}
	}
}

func TestEmbedChunks_BatchesAndReportsProgress(t *testing.T) {
	emb := &fakeEmbedder{}
	chunks := make([]entities.Chunk, 20)
	for i := range chunks {
		chunks[i] = entities.Chunk{ID: entities.NewChunkID("d", 1, i), Text: "x"}
	}
	bus := events.New()
	ch, unsub := bus.Subscribe()
	defer unsub()

	uc := &Ingestor{embedder: emb, bus: bus}
	if err := uc.embedChunks(context.Background(), chunks, 0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls != 3 { // 20 chunks / batch size 8 -> 3 batches
		t.Errorf("expected 3 batches, got %d", emb.calls)
	}
	for _, c := range chunks {
		if c.Embedding == nil {
			t.Error("expected every chunk embedded")
		}
	}

	var lastProgress float64
	draining := true
	for draining {
		select {
		case e := <-ch:
			if e.Kind == events.KindProgress {
				lastProgress = e.Progress
			}
		default:
			draining = false
		}
	}
	if lastProgress != 1.0 {
		t.Errorf("expected final progress 1.0, got %v", lastProgress)
	}
}

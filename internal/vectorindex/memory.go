// Package vectorindex holds the in-memory vector index (C6): a brute-force
// scan over chunks with embeddings, mirroring the Store's view of what is
// currently indexed. No approximate nearest-neighbor structure — corpora are
// personal-scale, so a specialized index is not justified.
package vectorindex

import (
	"sort"
	"sync"

	"github.com/offlinerag/ragcore/internal/domain/entities"
)

// Index is a concurrency-safe in-memory vector index.
type Index struct {
	mu     sync.RWMutex
	chunks []entities.Chunk
}

// New returns an empty Index.
func New() *Index {
	return &Index{}
}

// ReplaceAll discards the current contents and installs chunks, used after
// loadFromStore or import.
func (idx *Index) ReplaceAll(chunks []entities.Chunk) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.chunks = append([]entities.Chunk(nil), chunks...)
}

// Add appends chunks to the index, preserving insertion order for the topK
// tie-break.
func (idx *Index) Add(chunks ...entities.Chunk) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.chunks = append(idx.chunks, chunks...)
}

// UpdateEmbedding sets the embedding for the chunk with the given id, used
// by reindex. A miss is silently ignored.
func (idx *Index) UpdateEmbedding(id string, embedding []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i := range idx.chunks {
		if idx.chunks[i].ID == id {
			idx.chunks[i].Embedding = embedding
			return
		}
	}
}

// Remove drops every chunk belonging to docID, used to roll back a failed
// ingestion commit.
func (idx *Index) Remove(docID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	kept := idx.chunks[:0:0]
	for _, c := range idx.chunks {
		if c.DocID != docID {
			kept = append(kept, c)
		}
	}
	idx.chunks = kept
}

// Clear empties the index.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.chunks = nil
}

// Len reports how many chunks are currently indexed (embedded or not).
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// EmbeddedLen reports how many indexed chunks carry an embedding and are
// therefore eligible for TopK retrieval.
func (idx *Index) EmbeddedLen() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := 0
	for _, c := range idx.chunks {
		if c.Embedding != nil {
			n++
		}
	}
	return n
}

// All returns a snapshot copy of the indexed chunks.
func (idx *Index) All() []entities.Chunk {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]entities.Chunk(nil), idx.chunks...)
}

// TopK returns the k chunks with the greatest dot product against q, sorted
// score-descending with stable insertion-order tie-break. Chunks without an
// embedding are skipped silently. Since q and every stored vector are
// unit-norm, the dot product equals cosine similarity.
func (idx *Index) TopK(q []float32, k int) []entities.RetrievedChunk {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var scored []entities.RetrievedChunk
	for _, c := range idx.chunks {
		if c.Embedding == nil {
			continue
		}
		scored = append(scored, entities.RetrievedChunk{Chunk: c, Score: dot(q, c.Embedding)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/offlinerag/ragcore/internal/domain/entities"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndGetDocuments_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	docs := []entities.Document{
		{ID: "d1", Name: "a.pdf", MimeType: "application/pdf", SizeBytes: 100, AddedAt: "2026-01-01T00:00:00Z"},
	}
	require.NoError(t, s.PutDocuments(ctx, docs))

	got, err := s.GetAllDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, docs[0], got[0])
}

func TestPutDocuments_UpsertsById(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDocuments(ctx, []entities.Document{{ID: "d1", Name: "old.pdf"}}))
	require.NoError(t, s.PutDocuments(ctx, []entities.Document{{ID: "d1", Name: "new.pdf"}}))

	got, err := s.GetAllDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "new.pdf", got[0].Name)
}

func TestPutAndGetChunks_PreservesEmbeddingBits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	embedding := []float32{0.125, -0.5, 1.0, 0.0}
	chunks := []entities.Chunk{
		{ID: "d1|p1|c0", DocID: "d1", DocName: "a.pdf", Page: 1, Ordinal: 0, Text: "hello", Embedding: embedding},
	}
	require.NoError(t, s.PutChunks(ctx, chunks))

	got, err := s.GetAllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, embedding, got[0].Embedding)
}

func TestGetAllChunks_RestoresInsertionOrderBySeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []entities.Chunk{{ID: "c1", DocID: "d1", Text: "one"}}
	second := []entities.Chunk{{ID: "c2", DocID: "d1", Text: "two"}}
	require.NoError(t, s.PutChunks(ctx, first))
	require.NoError(t, s.PutChunks(ctx, second))

	got, err := s.GetAllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "c1", got[0].ID)
	require.Equal(t, "c2", got[1].ID)
}

func TestChunkWithNilEmbedding_RoundTripsAsNil(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutChunks(ctx, []entities.Chunk{{ID: "c1", DocID: "d1", Text: "x"}}))
	got, err := s.GetAllChunks(ctx)
	require.NoError(t, err)
	require.Nil(t, got[0].Embedding)
}

func TestClearAll_RemovesDocsAndChunks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDocuments(ctx, []entities.Document{{ID: "d1"}}))
	require.NoError(t, s.PutChunks(ctx, []entities.Chunk{{ID: "c1", DocID: "d1"}}))

	require.NoError(t, s.ClearAll(ctx))

	docs, err := s.GetAllDocuments(ctx)
	require.NoError(t, err)
	require.Empty(t, docs)

	chunks, err := s.GetAllChunks(ctx)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestEncodeDecodeEmbedding_RoundTrips(t *testing.T) {
	v := []float32{1.5, -2.25, 0, 3.75}
	got := decodeEmbedding(encodeEmbedding(v))
	require.Equal(t, v, got)
}

func TestEncodeEmbedding_NilVectorEncodesToNilBlob(t *testing.T) {
	require.Nil(t, encodeEmbedding(nil))
	require.Nil(t, decodeEmbedding(nil))
}

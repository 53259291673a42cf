// Package app wires together config, logging, adapters, and usecases into a
// single App struct that both the CLI and the HTTP server build from.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/offlinerag/ragcore/internal/adapters/embedding"
	"github.com/offlinerag/ragcore/internal/adapters/generation"
	"github.com/offlinerag/ragcore/internal/adapters/parser"
	"github.com/offlinerag/ragcore/internal/adapters/store"
	"github.com/offlinerag/ragcore/internal/config"
	"github.com/offlinerag/ragcore/internal/domain/ports"
	"github.com/offlinerag/ragcore/internal/domain/usecases"
	"github.com/offlinerag/ragcore/internal/events"
	"github.com/offlinerag/ragcore/internal/vectorindex"
)

// App holds every wired component a command needs.
type App struct {
	Config *config.Config
	Log    *slog.Logger
	Bus    *events.Bus

	Store     *store.SQLiteStore
	Index     *vectorindex.Index
	Embedder  ports.Embedder
	Generator ports.Generator

	Ingestor  *usecases.Ingestor
	Asker     *usecases.Asker
	Reindexer *usecases.Reindexer
}

// New builds an App from cfg, opening the SQLite store and loading any
// already-persisted chunks into the in-memory index.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	dbPath := filepath.Join(cfg.DataDir, "ragcore.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	index := vectorindex.New()
	chunks, err := st.GetAllChunks(context.Background())
	if err != nil {
		return nil, fmt.Errorf("app: load chunks: %w", err)
	}
	index.ReplaceAll(chunks)

	bus := events.New()
	embedder := embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.EmbedModel)
	generator := generation.NewOllamaGenerator(cfg.Ollama.Host)
	extractor := parser.NewMultiExtractor()

	ingestor := usecases.NewIngestor(embedder, extractor, st, index, bus, cfg.ChunkSize, cfg.ChunkOverlap)
	asker := usecases.NewAsker(embedder, generator, index, bus, cfg.TopK)
	reindexer := usecases.NewReindexer(embedder, st, index, bus)

	return &App{
		Config: cfg, Log: log, Bus: bus,
		Store: st, Index: index, Embedder: embedder, Generator: generator,
		Ingestor: ingestor, Asker: asker, Reindexer: reindexer,
	}, nil
}

// Close releases resources the App owns.
func (a *App) Close() error {
	return a.Store.Close()
}

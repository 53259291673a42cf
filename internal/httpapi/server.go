// Package httpapi exposes the ingestion, QA, and reindex usecases over HTTP
// (A5), the thin transport a presentation shell would sit behind. It
// contains no business logic of its own.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/offlinerag/ragcore/internal/domain/ports"
	"github.com/offlinerag/ragcore/internal/domain/usecases"
	"github.com/offlinerag/ragcore/internal/events"
)

// Server wires HTTP handlers to the underlying usecases.
type Server struct {
	router http.Handler
	log    *slog.Logger

	ingestor  *usecases.Ingestor
	asker     *usecases.Asker
	reindexer *usecases.Reindexer
	embedder  ports.Embedder
	generator ports.Generator
	index     ports.VectorIndex
	bus       *events.Bus
}

// New constructs a Server with the provided dependencies and mounts every
// route spec's exposed surface names.
func New(
	ingestor *usecases.Ingestor,
	asker *usecases.Asker,
	reindexer *usecases.Reindexer,
	embedder ports.Embedder,
	generator ports.Generator,
	index ports.VectorIndex,
	bus *events.Bus,
	log *slog.Logger,
) *Server {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router: mux, log: log,
		ingestor: ingestor, asker: asker, reindexer: reindexer,
		embedder: embedder, generator: generator, index: index, bus: bus,
	}

	mux.Get("/api/health", s.handleHealth)
	mux.Get("/api/status", s.handleStatus)
	mux.Get("/api/events", s.handleEvents)
	mux.Post("/api/documents", s.handleAddDocuments)
	mux.Post("/api/embedder/load", s.handleLoadEmbedder)
	mux.Post("/api/generator/load", s.handleLoadGenerator)
	mux.Post("/api/ask", s.handleAsk)
	mux.Post("/api/clear", s.handleClear)
	mux.Get("/api/export", s.handleExport)
	mux.Post("/api/import", s.handleImport)
	mux.Post("/api/reindex", s.handleReindex)

	return s
}

// ServeHTTP lets Server satisfy http.Handler directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"chunkCount":     s.index.Len(),
		"embedderReady":  s.embedder.Ready(),
		"generatorReady": s.generator.Ready(),
	})
}

// handleEvents bridges the in-process event bus to an SSE stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	ch, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
			flusher.Flush()
		}
	}
}

type addDocumentsRequest struct {
	Paths []string `json:"paths"`
}

func (s *Server) handleAddDocuments(w http.ResponseWriter, r *http.Request) {
	var req addDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("paths must not be empty"))
		return
	}

	results := s.ingestor.IngestFiles(r.Context(), req.Paths)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleLoadEmbedder(w http.ResponseWriter, r *http.Request) {
	if err := s.embedder.Ensure(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type loadGeneratorRequest struct {
	ModelID string `json:"modelId"`
}

func (s *Server) handleLoadGenerator(w http.ResponseWriter, r *http.Request) {
	var req loadGeneratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	err := s.generator.Load(r.Context(), req.ModelID, func(p ports.ProgressEvent) {
		s.bus.Progress(p.Progress)
		s.bus.Status(p.Text)
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type askRequest struct {
	Question    string `json:"question"`
	Strict      bool   `json:"strict"`
	ShowContext bool   `json:"showContext"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	result, err := s.asker.Ask(r.Context(), req.Question, req.Strict, req.ShowContext)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": result.Message})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.reindexer.Import(r.Context(), []byte(`{"docs":[],"chunks":[]}`)); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	payload, err := s.reindexer.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	if err := s.reindexer.Import(r.Context(), raw); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if err := s.reindexer.ReindexAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reindexed"})
}

// statusForError maps usecase sentinel errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, usecases.ErrNoCorpus):
		return http.StatusConflict
	case errors.Is(err, usecases.ErrGeneratorNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, usecases.ErrImportFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

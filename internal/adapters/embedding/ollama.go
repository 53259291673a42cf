// Package embedding provides the Ollama embedding adapter (C4), a lazy
// singleton wrapping the batch-capable /api/embed endpoint.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"
)

// loadState tracks the lazy-loader state machine: Unloaded -> Loading ->
// Ready, or Unloaded -> Loading -> Failed (which leaves the loader back at
// Unloaded so the next Ensure call retries).
type loadState int

const (
	stateUnloaded loadState = iota
	stateLoading
	stateReady
)

// OllamaEmbedder implements ports.Embedder against a local Ollama daemon.
// At most one Embed call is ever in flight: callers serialize batches.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client

	mu    sync.Mutex
	state loadState
}

// NewOllamaEmbedder constructs an OllamaEmbedder. baseURL and model default
// to the usual local Ollama conventions when empty.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Ready reports whether the model has completed a successful warmup.
func (e *OllamaEmbedder) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateReady
}

// Ensure performs a one-token warmup call that forces Ollama to load the
// model. A failed warmup leaves the loader Unloaded so the next call
// retries rather than sticking in a permanently broken state.
func (e *OllamaEmbedder) Ensure(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateReady {
		return nil
	}
	e.state = stateLoading

	if _, err := e.embedLocked(ctx, []string{"warmup"}); err != nil {
		e.state = stateUnloaded
		return fmt.Errorf("embedder warmup: %w", err)
	}
	e.state = stateReady
	return nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed returns unit-norm vectors for texts, parallel to the input slice.
// The mutex is held for the full HTTP round trip so batches never interleave.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedLocked(ctx, texts)
}

func (e *OllamaEmbedder) embedLocked(ctx context.Context, texts []string) ([][]float32, error) {
	body := ollamaEmbedRequest{Model: e.model, Input: texts}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != "" {
			msg = result.Error
		}
		return nil, fmt.Errorf("ollama: %s", msg)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	for i := range result.Embeddings {
		normalize(result.Embeddings[i])
	}
	return result.Embeddings, nil
}

// normalize rescales v to unit length in place. Re-normalizing in Go keeps
// the unit-norm invariant true even if a future embedding model forgets to.
func normalize(v []float32) {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

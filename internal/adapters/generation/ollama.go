// Package generation provides the Ollama generation adapter (C5): an
// explicitly-loaded model that streams chat completions and requires GPU
// residency to be considered usable.
package generation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/offlinerag/ragcore/internal/domain/entities"
	"github.com/offlinerag/ragcore/internal/domain/ports"
)

// OllamaGenerator implements ports.Generator. Unlike the embedder it is
// never auto-loaded: Load is only ever called from the exposed
// loadGenerator command.
type OllamaGenerator struct {
	baseURL string
	client  *http.Client

	mu      sync.Mutex
	model   string
	ready   bool
	busy    bool
}

// NewOllamaGenerator constructs an OllamaGenerator. baseURL defaults to the
// usual local Ollama convention when empty.
func NewOllamaGenerator(baseURL string) *OllamaGenerator {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	return &OllamaGenerator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

// Ready reports whether a model has finished loading with GPU residency.
func (g *OllamaGenerator) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

type ollamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type ollamaPullProgress struct {
	Status    string `json:"status"`
	Completed int64  `json:"completed"`
	Total     int64  `json:"total"`
	Error     string `json:"error,omitempty"`
}

type ollamaChatRequest struct {
	Model    string             `json:"model"`
	Messages []ollamaChatMsg    `json:"messages"`
	Stream   bool               `json:"stream"`
	Options  *ollamaChatOptions `json:"options,omitempty"`
}

type ollamaChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatResponse struct {
	Message ollamaChatMsg `json:"message"`
	Done    bool          `json:"done"`
}

type ollamaPSResponse struct {
	Models []struct {
		Name     string `json:"name"`
		SizeVRAM int64  `json:"size_vram"`
	} `json:"models"`
}

// Load pulls modelID if not already local (reporting download progress via
// onProgress), issues a warmup chat call, then checks /api/ps for GPU
// residency. A model running with zero VRAM is treated as CPU-only and Load
// returns an error naming the model; that error, like every other Load
// error, is a plain error and does not wrap usecases.ErrGeneratorUnavailable.
// Load leaves the generator unloaded in every failure path.
func (g *OllamaGenerator) Load(ctx context.Context, modelID string, onProgress func(ports.ProgressEvent)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if onProgress == nil {
		onProgress = func(ports.ProgressEvent) {}
	}

	if err := g.pull(ctx, modelID, onProgress); err != nil {
		return fmt.Errorf("pull %s: %w", modelID, err)
	}

	if err := g.warmup(ctx, modelID); err != nil {
		return fmt.Errorf("warmup %s: %w", modelID, err)
	}

	vram, err := g.vramFor(ctx, modelID)
	if err != nil {
		return fmt.Errorf("check gpu residency for %s: %w", modelID, err)
	}
	if vram == 0 {
		return fmt.Errorf("%s loaded without GPU residency", modelID)
	}

	g.model = modelID
	g.ready = true
	return nil
}

func (g *OllamaGenerator) pull(ctx context.Context, modelID string, onProgress func(ports.ProgressEvent)) error {
	payload, err := json.Marshal(ollamaPullRequest{Model: modelID, Stream: true})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/pull", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p ollamaPullProgress
		if err := json.Unmarshal(line, &p); err != nil {
			continue
		}
		if p.Error != "" {
			return fmt.Errorf("%s", p.Error)
		}
		fraction := 0.0
		if p.Total > 0 {
			fraction = float64(p.Completed) / float64(p.Total)
		}
		onProgress(ports.ProgressEvent{Progress: fraction, Text: p.Status})
	}
	return scanner.Err()
}

func (g *OllamaGenerator) warmup(ctx context.Context, modelID string) error {
	payload, err := json.Marshal(ollamaChatRequest{
		Model:    modelID,
		Messages: []ollamaChatMsg{{Role: "user", Content: "hi"}},
		Stream:   false,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var out ollamaChatResponse
	return json.NewDecoder(resp.Body).Decode(&out)
}

func (g *OllamaGenerator) vramFor(ctx context.Context, modelID string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/ps", nil)
	if err != nil {
		return 0, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var ps ollamaPSResponse
	if err := json.NewDecoder(resp.Body).Decode(&ps); err != nil {
		return 0, err
	}
	for _, m := range ps.Models {
		if m.Name == modelID {
			return m.SizeVRAM, nil
		}
	}
	return 0, nil
}

// Stream posts messages to /api/chat with stream:true and decodes the
// newline-delimited JSON response into a channel of content deltas. A
// second concurrent Stream call is rejected with an error rather than
// queued, matching the single-task-actor concurrency model.
func (g *OllamaGenerator) Stream(ctx context.Context, messages []entities.Message, opts ports.GenerateOptions) (<-chan ports.StreamChunk, error) {
	g.mu.Lock()
	if !g.ready {
		g.mu.Unlock()
		return nil, fmt.Errorf("generator not loaded")
	}
	if g.busy {
		g.mu.Unlock()
		return nil, fmt.Errorf("generation already in progress")
	}
	g.busy = true
	model := g.model
	g.mu.Unlock()

	chatMsgs := make([]ollamaChatMsg, len(messages))
	for i, m := range messages {
		chatMsgs[i] = ollamaChatMsg{Role: string(m.Role), Content: m.Content}
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: chatMsgs,
		Stream:   true,
		Options:  &ollamaChatOptions{Temperature: opts.Temperature},
	})
	if err != nil {
		g.clearBusy()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		g.clearBusy()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.clearBusy()
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		g.clearBusy()
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	ch := make(chan ports.StreamChunk, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		defer g.clearBusy()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				ch <- ports.StreamChunk{Err: ctx.Err()}
				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Message.Content != "" {
				ch <- ports.StreamChunk{Text: chunk.Message.Content}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- ports.StreamChunk{Err: fmt.Errorf("reading ollama stream: %w", err)}
		}
	}()

	return ch, nil
}

func (g *OllamaGenerator) clearBusy() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}

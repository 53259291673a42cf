package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/offlinerag/ragcore/internal/logging"
)

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, path, err := Load("/nonexistent/path.yaml", logging.NewDefault())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path when file not found, got %q", path)
	}
	if cfg.Ollama.Host != "http://127.0.0.1:11434" {
		t.Errorf("unexpected default host: %q", cfg.Ollama.Host)
	}
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ragcore.yaml")
	content := []byte("chunk_size: 800\nollama:\n  embed_model: custom-embed\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, gotPath, err := Load(path, logging.NewDefault())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != path {
		t.Errorf("expected path %q, got %q", path, gotPath)
	}
	if cfg.ChunkSize != 800 {
		t.Errorf("expected chunk_size 800, got %d", cfg.ChunkSize)
	}
	if cfg.Ollama.EmbedModel != "custom-embed" {
		t.Errorf("expected custom-embed, got %q", cfg.Ollama.EmbedModel)
	}
	// Fields not present in the YAML keep their defaults.
	if cfg.TopK != 6 {
		t.Errorf("expected default topK 6, got %d", cfg.TopK)
	}
}

func TestLoad_EnvVarsOverrideYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ragcore.yaml")
	if err := os.WriteFile(path, []byte("ollama:\n  host: http://from-yaml:1234\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OLLAMA_HOST", "http://from-env:5678")

	cfg, _, err := Load(path, logging.NewDefault())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ollama.Host != "http://from-env:5678" {
		t.Errorf("expected env var to win, got %q", cfg.Ollama.Host)
	}
}

func TestDefault_HasSaneValues(t *testing.T) {
	cfg := Default()
	if cfg.ChunkSize != 1200 || cfg.ChunkOverlap != 200 || cfg.TopK != 6 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

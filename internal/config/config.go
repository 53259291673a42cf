// Package config provides YAML-based configuration for ragcore.
// Configuration is loaded with layered precedence: defaults → YAML file →
// environment variables. Environment variables always win, so a deployment
// that only sets env vars keeps working unchanged.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. RAGCORE_CONFIG environment variable
//  3. ~/.ragcore/config.yaml
//  4. ./ragcore.yaml
//
// If no file is found the system runs entirely from defaults and env vars.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// DataDir holds the SQLite database and any imported/exported files.
	DataDir string `yaml:"data_dir"`

	Ollama OllamaConfig `yaml:"ollama"`

	// ChunkSize is the chunker window size in characters.
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is the chunker window overlap in characters.
	ChunkOverlap int `yaml:"chunk_overlap"`
	// TopK is the number of chunks retrieved per question.
	TopK int `yaml:"top_k"`

	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// OllamaConfig holds settings for the local Ollama daemon this process talks
// to over loopback HTTP.
type OllamaConfig struct {
	// Host is the Ollama base URL, e.g. "http://127.0.0.1:11434".
	Host string `yaml:"host"`
	// EmbedModel is the embedding model name, e.g. "nomic-embed-text".
	EmbedModel string `yaml:"embed_model"`
	// GenerateModel is the default generative model name.
	GenerateModel string `yaml:"generate_model"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config populated with sane local-first defaults.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Ollama: OllamaConfig{
			Host:          "http://127.0.0.1:11434",
			EmbedModel:    "nomic-embed-text",
			GenerateModel: "llama3.2",
		},
		ChunkSize:    1200,
		ChunkOverlap: 200,
		TopK:         6,
		Server:       ServerConfig{Addr: ":8787"},
		Logging:      LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load resolves a YAML file (if any) and applies it on top of Default(),
// then lets environment variables override anything still unset by the
// caller's explicit flags. explicitPath is the --config flag value, "" if
// not given.
func Load(explicitPath string, log *slog.Logger) (*Config, string, error) {
	cfg := Default()

	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using defaults and env vars")
		applyEnv(cfg)
		return cfg, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyEnv(cfg)

	log.Info("config: loaded", slog.String("path", path))
	return cfg, path, nil
}

// applyEnv overrides cfg fields from environment variables when set. Env
// vars always win over YAML, matching the documented precedence.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RAGCORE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	if v := os.Getenv("RAGCORE_EMBED_MODEL"); v != "" {
		cfg.Ollama.EmbedModel = v
	}
	if v := os.Getenv("RAGCORE_GENERATE_MODEL"); v != "" {
		cfg.Ollama.GenerateModel = v
	}
	if v := os.Getenv("RAGCORE_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChunkSize = n
		}
	}
	if v := os.Getenv("RAGCORE_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChunkOverlap = n
		}
	}
	if v := os.Getenv("RAGCORE_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopK = n
		}
	}
	if v := os.Getenv("RAGCORE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("RAGCORE_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".ragcore", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("ragcore.yaml"); err == nil {
		return "ragcore.yaml"
	}

	return ""
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragcore"
	}
	return filepath.Join(home, ".ragcore")
}

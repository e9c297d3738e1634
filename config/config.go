// Package config loads module configuration from YAML with environment
// variable overrides. Precedence: defaults, then the YAML file, then
// TYPEDFLOW_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/typedflow/typedflow/kb"
)

// ProviderConfig configures the chat completion provider.
type ProviderConfig struct {
	// Name selects the provider flavor: "openai" or "azure".
	Name string `yaml:"name"`

	// BaseURL is the API base URL. For Azure this is the service URL.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates requests.
	APIKey string `yaml:"api_key"`

	// Model is the default model or, for Azure, the deployment name.
	Model string `yaml:"model"`

	// APIVersion is the Azure api-version; ignored by other flavors.
	APIVersion string `yaml:"api_version"`

	// Timeout is the HTTP client timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// EmbeddingConfig configures the embeddings endpoint.
type EmbeddingConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	MaxBatch int           `yaml:"max_batch"`
	Timeout  time.Duration `yaml:"timeout"`
}

// GenerationConfig tunes structured generation requests.
type GenerationConfig struct {
	// Temperature is passed through to the provider.
	Temperature float32 `yaml:"temperature"`

	// MaxTokens caps the completion length. Zero leaves it to the provider.
	MaxTokens int `yaml:"max_tokens"`

	// ToolName overrides the forced tool's name.
	ToolName string `yaml:"tool_name"`
}

// Config is the root configuration.
type Config struct {
	Provider   ProviderConfig    `yaml:"provider"`
	Embedding  EmbeddingConfig   `yaml:"embedding"`
	Index      kb.IndexConfig    `yaml:"index"`
	Chunking   kb.ChunkingConfig `yaml:"chunking"`
	Generation GenerationConfig  `yaml:"generation"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:    "openai",
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o",
			Timeout: 60 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Model:    "text-embedding-3-small",
			MaxBatch: 100,
			Timeout:  30 * time.Second,
		},
		Chunking: kb.DefaultChunkingConfig(),
		Generation: GenerationConfig{
			Temperature: 0,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty) and applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.Name == "azure" && c.Provider.APIVersion == "" {
		return fmt.Errorf("provider.api_version is required for azure")
	}
	if c.Provider.Model == "" {
		return fmt.Errorf("provider.model is required")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr("TYPEDFLOW_PROVIDER", &cfg.Provider.Name)
	setStr("TYPEDFLOW_BASE_URL", &cfg.Provider.BaseURL)
	setStr("TYPEDFLOW_API_KEY", &cfg.Provider.APIKey)
	setStr("TYPEDFLOW_MODEL", &cfg.Provider.Model)
	setStr("TYPEDFLOW_API_VERSION", &cfg.Provider.APIVersion)
	setStr("TYPEDFLOW_EMBEDDING_BASE_URL", &cfg.Embedding.BaseURL)
	setStr("TYPEDFLOW_EMBEDDING_API_KEY", &cfg.Embedding.APIKey)
	setStr("TYPEDFLOW_EMBEDDING_MODEL", &cfg.Embedding.Model)
	setStr("TYPEDFLOW_INDEX_ENDPOINT", &cfg.Index.Endpoint)
	setStr("TYPEDFLOW_INDEX_API_KEY", &cfg.Index.APIKey)
	setStr("TYPEDFLOW_INDEX_NAME", &cfg.Index.IndexName)

	if v := os.Getenv("TYPEDFLOW_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generation.MaxTokens = n
		}
	}
	if v := os.Getenv("TYPEDFLOW_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Generation.Temperature = float32(f)
		}
	}
}

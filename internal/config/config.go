package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "./configs/config.yaml"

// Config is the root configuration. It is loaded once and handed to each
// component's constructor.
type Config struct {
	Database  DatabaseConfig `yaml:"database"`
	LLM       LLMConfig      `yaml:"llm"`
	EmbedLLM  LLMConfig      `yaml:"embed_llm"`
	RAG       RAGConfig      `yaml:"rag"`
	VectorDB  VectorDBConfig `yaml:"vector_db"`
	LogLevel  string         `yaml:"log_level"`
	LogPretty bool           `yaml:"log_pretty"`
}

// DatabaseConfig selects the bun dialect and driver.
// Driver is one of "pgdriver" (default), "pq" or "sqlite".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// LLMConfig configures a text generation or embedding endpoint.
// Provider is "openai" (any OpenAI-compatible server) or "ollama".
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// RAGConfig holds the pipeline tunables.
type RAGConfig struct {
	ChunkSize             int     `yaml:"chunk_size"`
	MetadataThreshold     float64 `yaml:"metadata_threshold"`
	VectorThreshold       float64 `yaml:"vector_threshold"`
	MetadataSampleLimit   int     `yaml:"metadata_sample_limit"`
	NormalizeMaxChars     int     `yaml:"normalize_max_chars"`
	NormalizeSliceWidth   int     `yaml:"normalize_slice_width"`
	CombinedNormalization bool    `yaml:"combined_normalization"`
	EmbeddingDimension    int     `yaml:"embedding_dimension"`
	EmbedConcurrency      int     `yaml:"embed_concurrency"`
	EmbedRateLimit        float64 `yaml:"embed_rate_limit"`
}

// VectorDBConfig configures chromem snapshots.
// EncryptionKey must be 32 bytes when set.
type VectorDBConfig struct {
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	EncryptionKey string `yaml:"encryption_key"`
	Compress      bool   `yaml:"compress"`
}

// LoadConfig reads path on top of the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads .env.local and .env into the process environment. Existing
// variables win, so .env.local takes precedence over .env.
func LoadEnv() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:content_store.db?_pragma=foreign_keys(1)",
		},
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4",
		},
		EmbedLLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://api.openai.com/v1",
			Model:    "text-embedding-ada-002",
		},
		RAG: RAGConfig{
			ChunkSize:           250,
			MetadataThreshold:   0.80,
			VectorThreshold:     0.80,
			MetadataSampleLimit: 2000,
			NormalizeMaxChars:   8000,
			NormalizeSliceWidth: 8000,
			EmbeddingDimension:  1536,
			EmbedConcurrency:    1,
		},
		VectorDB: VectorDBConfig{
			Path:       "./chromemdb",
			Collection: "chunks",
		},
		LogLevel:  "info",
		LogPretty: true,
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = def.Database.Driver
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = def.EmbedLLM.Provider
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = def.RAG.ChunkSize
	}
	if cfg.RAG.MetadataSampleLimit == 0 {
		cfg.RAG.MetadataSampleLimit = def.RAG.MetadataSampleLimit
	}
	if cfg.RAG.NormalizeMaxChars == 0 {
		cfg.RAG.NormalizeMaxChars = def.RAG.NormalizeMaxChars
	}
	if cfg.RAG.NormalizeSliceWidth == 0 {
		cfg.RAG.NormalizeSliceWidth = def.RAG.NormalizeSliceWidth
	}
	if cfg.RAG.EmbeddingDimension == 0 {
		cfg.RAG.EmbeddingDimension = def.RAG.EmbeddingDimension
	}
	if cfg.RAG.EmbedConcurrency == 0 {
		cfg.RAG.EmbedConcurrency = def.RAG.EmbedConcurrency
	}
	if cfg.VectorDB.Collection == "" {
		cfg.VectorDB.Collection = def.VectorDB.Collection
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}

// applyEnv overlays secrets from the environment onto empty or file values.
func applyEnv(cfg *Config, getenv func(string) string) {
	if key := getenv("OPENAI_API_KEY"); key != "" {
		if cfg.LLM.Key == "" {
			cfg.LLM.Key = key
		}
		if cfg.EmbedLLM.Key == "" {
			cfg.EmbedLLM.Key = key
		}
	}
	if dsn := getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if pw := getenv("DATABASE_PASSWORD"); pw != "" {
		cfg.Database.Password = pw
	}
	if key := getenv("VECTOR_DB_ENCRYPTION_KEY"); key != "" {
		cfg.VectorDB.EncryptionKey = key
	}
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "pgdriver", "pq", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	for _, p := range []string{c.LLM.Provider, c.EmbedLLM.Provider} {
		if p != "openai" && p != "ollama" {
			return fmt.Errorf("unknown llm provider %q", p)
		}
	}
	if c.RAG.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.EmbeddingDimension < 0 {
		return fmt.Errorf("embedding_dimension must be positive, got %d", c.RAG.EmbeddingDimension)
	}
	if c.RAG.MetadataThreshold > 1 || c.RAG.VectorThreshold > 1 {
		return errors.New("similarity thresholds must not exceed 1")
	}
	if c.RAG.NormalizeSliceWidth < 0 || c.RAG.NormalizeMaxChars < 0 || c.RAG.MetadataSampleLimit < 0 {
		return errors.New("normalization limits must be positive")
	}
	if c.RAG.EmbedConcurrency < 0 || c.RAG.EmbedRateLimit < 0 {
		return errors.New("embed_concurrency and embed_rate_limit must not be negative")
	}
	if k := c.VectorDB.EncryptionKey; k != "" && len(k) != 32 {
		return fmt.Errorf("vector_db encryption_key must be 32 bytes, got %d", len(k))
	}
	return nil
}

// Package config loads the application configuration from YAML, with
// defaults applied for anything not set.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds connection settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string        `yaml:"type"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
	WindowWords       int    `yaml:"window_words"`
	OverlapWords      int    `yaml:"overlap_words"`
}

// QdrantConfig contains connection details for a Qdrant index backend.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Type         string        `yaml:"type"`
	SnapshotPath string        `yaml:"snapshot_path"`
	Qdrant       *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RetrieverConfig tunes retrieval behavior.
type RetrieverConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity"`
	Rerank        bool    `yaml:"rerank"`
	Hybrid        bool    `yaml:"hybrid"`
	DenseWeight   float64 `yaml:"dense_weight"`
	SparseWeight  float64 `yaml:"sparse_weight"`
}

// ContextConfig bounds the assembled prompt context.
type ContextConfig struct {
	BudgetWords int `yaml:"budget_words"`
}

// SummarizerConfig configures the post-ingest corpus summary.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Index      IndexConfig      `yaml:"index"`
	Retriever  RetrieverConfig  `yaml:"retriever"`
	Generator  OpenAIConfig     `yaml:"generator"`
	Context    ContextConfig    `yaml:"context"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragchat/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

func defaultSnapshotPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "index.gob"
	}
	return filepath.Join(home, ".local", "share", "ragchat", "index.gob")
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == 0 {
			o.MaxRetries = 5
		}
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "sentence"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Chunker.OverlapSentences == 0 {
		cfg.Chunker.OverlapSentences = 1
	}
	if cfg.Chunker.WindowWords == 0 {
		cfg.Chunker.WindowWords = 512
	}
	if cfg.Chunker.OverlapWords == 0 {
		cfg.Chunker.OverlapWords = 64
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Index.SnapshotPath == "" {
		cfg.Index.SnapshotPath = defaultSnapshotPath()
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 5
	}
	if cfg.Retriever.DenseWeight == 0 && cfg.Retriever.SparseWeight == 0 {
		cfg.Retriever.DenseWeight = 0.5
		cfg.Retriever.SparseWeight = 0.5
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-4o-mini"
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 60
	}
	if cfg.Generator.MaxRetries == 0 {
		cfg.Generator.MaxRetries = 3
	}
	if cfg.Context.BudgetWords == 0 {
		cfg.Context.BudgetWords = 1200
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
}

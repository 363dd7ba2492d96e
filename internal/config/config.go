package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig points at an OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Model   string `yaml:"model"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // "postgres" or "chromem"
	Path       string `yaml:"path"`    // chromem persistence directory
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

type RAGConfig struct {
	ChunkSize    int     `yaml:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap"`
	TopK         int     `yaml:"top_k"`
	MaxDistance  float64 `yaml:"max_distance"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	ChatLLM  LLMConfig      `yaml:"chat_llm"`
	RAG      RAGConfig      `yaml:"rag"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "postgres"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "documents"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 2000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 6
	}
	if cfg.RAG.MaxDistance == 0 {
		cfg.RAG.MaxDistance = 1.2
	}
}

// validate catches missing external-resource identifiers at startup; they
// are not recoverable per request.
func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres store")
		}
	case "chromem":
		if cfg.Store.Path == "" && !cfg.Store.InMemory {
			return errors.New("store.path is required for the chromem store")
		}
	default:
		return fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
	if cfg.EmbedLLM.Key == "" && cfg.EmbedLLM.BaseURL == "" {
		return errors.New("embed_llm.key or embed_llm.base_url is required")
	}
	return nil
}

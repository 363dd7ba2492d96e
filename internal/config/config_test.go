package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "postgres://localhost:5432/tariffrag"
  password: "secret"
  debug: true
embed_llm:
  key: "sk-test"
  model: "text-embedding-ada-002"
chat_llm:
  key: "sk-test"
  model: "gpt-4o-mini"
rag:
  chunk_size: 1500
  top_k: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost:5432/tariffrag", cfg.Database.DSN)
	require.Equal(t, "secret", cfg.Database.Password)
	require.True(t, cfg.Database.Debug)
	require.Equal(t, "sk-test", cfg.EmbedLLM.Key)
	require.Equal(t, 1500, cfg.RAG.ChunkSize)
	require.Equal(t, 4, cfg.RAG.TopK)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "postgres://localhost:5432/tariffrag"
embed_llm:
  key: "sk-test"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Store.Backend)
	require.Equal(t, "documents", cfg.Store.Collection)
	require.Equal(t, 2000, cfg.RAG.ChunkSize)
	require.Equal(t, 200, cfg.RAG.ChunkOverlap)
	require.Equal(t, 6, cfg.RAG.TopK)
	require.Equal(t, 1.2, cfg.RAG.MaxDistance)
}

func TestLoadConfigMissingDSN(t *testing.T) {
	path := writeConfig(t, `
embed_llm:
  key: "sk-test"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "database.dsn")
}

func TestLoadConfigChromemNeedsPath(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: "chromem"
embed_llm:
  key: "sk-test"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "store.path")
}

func TestLoadConfigChromemInMemory(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: "chromem"
  in_memory: true
embed_llm:
  key: "sk-test"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "chromem", cfg.Store.Backend)
	require.True(t, cfg.Store.InMemory)
}

func TestLoadConfigUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: "redis"
database:
  dsn: "postgres://localhost:5432/tariffrag"
embed_llm:
  key: "sk-test"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown store backend")
}

func TestLoadConfigMissingEmbedKey(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "postgres://localhost:5432/tariffrag"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "embed_llm")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

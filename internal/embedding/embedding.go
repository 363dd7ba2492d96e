// Package embedding wraps the langchaingo embedder behind the one
// capability the pipelines need from an embedding service.
package embedding

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"tariff-rag/internal/config"
)

// Embedder turns text into a fixed-dimension dense vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder builds a langchaingo embedder against an OpenAI-compatible
// embeddings endpoint.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedText embeds a single text. Blank input yields an empty vector rather
// than an error, per the embedding service contract.
func EmbedText(ctx context.Context, embedder Embedder, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return embedder.EmbedQuery(ctx, text)
}

// Package ingest composes the segmenter, the chunker, the embedder and the
// vector store into the offline document pipeline.
package ingest

import (
	"context"
	"crypto/md5"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"tariff-rag/internal/chunker"
	"tariff-rag/internal/config"
	"tariff-rag/internal/embedding"
	"tariff-rag/internal/helper"
	"tariff-rag/internal/models"
	"tariff-rag/internal/parser"
)

// Store is the write side of the vector store.
type Store interface {
	UpsertChunks(ctx context.Context, chunks []models.Chunk) (int, error)
}

// Pipeline turns source documents into embedded, citation-addressable
// chunks. It owns all writes to the store.
type Pipeline struct {
	store        Store
	embedder     embedding.Embedder
	chunkSize    int
	chunkOverlap int
}

func NewPipeline(store Store, embedder embedding.Embedder, cfg *config.RAGConfig) *Pipeline {
	return &Pipeline{
		store:        store,
		embedder:     embedder,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
	}
}

// IngestFile segments, chunks, embeds and stores one document. Re-running on
// an unchanged file inserts nothing thanks to the store's uniqueness key, so
// a partially ingested document is safe to retry in full. Returns the number
// of chunks actually inserted.
func (p *Pipeline) IngestFile(ctx context.Context, filePath, bucket string) (int, error) {
	sections, err := parser.ParseSections(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	srcName := filepath.Base(filePath)
	log.Info().Str("source", srcName).Str("bucket", bucket).
		Int("sections", len(sections)).Msg("starting ingest")

	inserted := 0
	for si, sec := range sections {
		log.Debug().Int("section", si+1).Str("label", labelOrDash(sec.Label)).
			Str("title", helper.Truncate(sec.Title, 60)).
			Int("page_start", sec.PageStart).Int("page_end", sec.PageEnd).
			Int("len", len(sec.Text)).Msg("segmented section")

		subChunks := chunker.SoftChunk(sec.Text, p.chunkSize, p.chunkOverlap)

		batch := make([]models.Chunk, 0, len(subChunks))
		for ci, sub := range subChunks {
			decorated := Decorate(srcName, sec, sub)

			vec, err := embedding.EmbedText(ctx, p.embedder, decorated)
			if err != nil {
				return inserted, fmt.Errorf("failed to embed chunk: %w", err)
			}
			if len(vec) == 0 {
				log.Warn().Int("section", si+1).Int("chunk", ci+1).
					Msg("empty embedding, skipping chunk")
				continue
			}

			batch = append(batch, models.Chunk{
				Content:     decorated,
				Embedding:   vec,
				Source:      srcName,
				Section:     sec.Label,
				Title:       sec.Title,
				PageStart:   sec.PageStart,
				PageEnd:     sec.PageEnd,
				Bucket:      bucket,
				ContentHash: ContentHash(decorated),
			})
		}

		if len(batch) == 0 {
			continue
		}

		n, err := p.store.UpsertChunks(ctx, batch)
		if err != nil {
			return inserted, fmt.Errorf("failed to store section chunks: %w", err)
		}
		inserted += n
	}

	log.Info().Str("source", srcName).Int("inserted", inserted).Msg("ingest complete")
	return inserted, nil
}

// Decorate prefixes a chunk with its citation header. The embedding is
// computed over the decorated text, so retrieval also matches on citation
// context.
func Decorate(source string, sec models.Section, chunk string) string {
	return fmt.Sprintf("[%s | sec:%s | %s | p.%d-%d]\n%s",
		source, labelOrDash(sec.Label), sec.Title, sec.PageStart, sec.PageEnd, chunk)
}

// ContentHash is the digest used in the store's uniqueness key.
func ContentHash(content string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

func labelOrDash(label string) string {
	if label == "" {
		return "-"
	}
	return label
}

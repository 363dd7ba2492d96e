// Package chromemdb keeps chunks in an embedded chromem-go collection, as
// an alternative to the Postgres store for single-binary deployments.
package chromemdb

import (
	"context"
	"crypto/md5"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"

	"tariff-rag/internal/models"
)

// Store wraps one chromem collection. Document IDs derive from the chunk
// uniqueness key, so re-adding identical content overwrites in place
// instead of growing the collection.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

func NewStore(path, collectionName string, inMemory bool) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector database: %w", err)
		}
	}

	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &Store{db: db, collection: c}, nil
}

// Count reports the number of stored chunks.
func (s *Store) Count() int { return s.collection.Count() }

// UpsertChunks stores decorated chunks. Returns how many were new to the
// collection.
func (s *Store) UpsertChunks(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:      chunkID(c),
			Content: c.Content,
			Metadata: map[string]string{
				"source":     c.Source,
				"section":    c.Section,
				"title":      c.Title,
				"page_start": strconv.Itoa(c.PageStart),
				"page_end":   strconv.Itoa(c.PageEnd),
				"bucket":     c.Bucket,
			},
			Embedding: c.Embedding,
		})
	}

	before := s.collection.Count()
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}
	return s.collection.Count() - before, nil
}

// SearchSimilar returns the topK chunks nearest to the query embedding,
// closest first, optionally restricted to one bucket.
func (s *Store) SearchSimilar(ctx context.Context, embedding []float32, bucket string, topK int) ([]models.Candidate, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	opts := chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       topK,
	}
	if bucket != "" {
		opts.Where = map[string]string{"bucket": bucket}
	}

	results, err := s.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, res := range results {
		pageStart, _ := strconv.Atoi(res.Metadata["page_start"])
		pageEnd, _ := strconv.Atoi(res.Metadata["page_end"])
		candidates = append(candidates, models.Candidate{
			Content:   res.Content,
			Source:    res.Metadata["source"],
			Section:   res.Metadata["section"],
			Title:     res.Metadata["title"],
			PageStart: pageStart,
			PageEnd:   pageEnd,
			Bucket:    res.Metadata["bucket"],
			// chromem reports cosine similarity; flip it so lower stays
			// closer, matching the relational store's ordering.
			Distance: float64(1 - res.Similarity),
		})
	}
	return candidates, nil
}

// chunkID mirrors the relational store's uniqueness tuple.
func chunkID(c models.Chunk) string {
	key := strings.Join([]string{
		c.Source,
		c.Bucket,
		c.Section,
		strconv.Itoa(c.PageStart),
		strconv.Itoa(c.PageEnd),
		c.ContentHash,
	}, "|")
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))
}

// Package db is the pgvector-backed chunk store. The ingestion pipeline is
// the only writer; retrieval is read only.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"tariff-rag/internal/config"
	"tariff-rag/internal/helper"
	"tariff-rag/internal/models"
)

// VectorDim must match the embedding model configured for ingestion.
const VectorDim = 1536

// conflictTarget matches the uniq_doc_chunk index; re-ingesting identical
// content is a no-op instead of a duplicate row. Bucket is stored as ''
// when absent, never NULL: Postgres treats NULLs as distinct inside unique
// indexes, which would break the tuple's uniqueness.
const conflictTarget = "CONFLICT (source, bucket, COALESCE(section, ''), page_start, page_end, content_hash) DO NOTHING"

// ChunkRow is one persisted, citation-decorated block of document text.
type ChunkRow struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID          int64           `bun:"id,pk,autoincrement"`
	Content     string          `bun:"content,notnull"`
	Embedding   pgvector.Vector `bun:"embedding,type:vector(1536)"`
	Source      string          `bun:"source,notnull"`
	Section     string          `bun:"section,nullzero"`
	Title       string          `bun:"title"`
	PageStart   int             `bun:"page_start,notnull"`
	PageEnd     int             `bun:"page_end,notnull"`
	Bucket      string          `bun:"bucket,notnull,default:''"`
	ContentHash string          `bun:"content_hash,notnull"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// QueryLogRow records one answered query, best effort.
type QueryLogRow struct {
	bun.BaseModel `bun:"table:query_log,alias:q"`

	ID        string    `bun:"id,pk"`
	Query     string    `bun:"query,notnull"`
	Bucket    string    `bun:"bucket"`
	Answer    string    `bun:"answer"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// DB wraps a bun connection to the chunk store.
type DB struct {
	bun *bun.DB
}

func Connect(cfg *config.DatabaseConfig) *DB {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))

	bdb := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &DB{bun: bdb}
}

func (d *DB) Close() error { return d.bun.Close() }

// Init creates the vector extension, the chunk and query log tables, the
// uniqueness index backing idempotent ingestion and the ANN index.
func (d *DB) Init(ctx context.Context) error {
	if _, err := d.bun.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	if _, err := d.bun.NewCreateTable().Model((*ChunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	if _, err := d.bun.NewCreateTable().Model((*QueryLogRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create query_log table: %w", err)
	}
	if _, err := d.bun.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_doc_chunk
		ON documents (source, bucket, COALESCE(section, ''), page_start, page_end, content_hash)`); err != nil {
		return fmt.Errorf("failed to create uniqueness index: %w", err)
	}
	if _, err := d.bun.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS documents_embedding_idx
		ON documents USING ivfflat (embedding vector_l2_ops) WITH (lists = 100)`); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	return nil
}

// UpsertChunks stores decorated chunks, ignoring rows whose uniqueness key
// already exists. Returns the number of rows actually inserted.
func (d *DB) UpsertChunks(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	rows := make([]ChunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = ChunkRow{
			Content:     c.Content,
			Embedding:   pgvector.NewVector(c.Embedding),
			Source:      c.Source,
			Section:     c.Section,
			Title:       c.Title,
			PageStart:   c.PageStart,
			PageEnd:     c.PageEnd,
			Bucket:      c.Bucket,
			ContentHash: c.ContentHash,
		}
	}

	res, err := d.bun.NewInsert().Model(&rows).On(conflictTarget).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted row count: %w", err)
	}
	return int(inserted), nil
}

// searchHit is the scan target for similarity queries; distance is the L2
// distance computed by pgvector's <-> operator.
type searchHit struct {
	Content   string  `bun:"content"`
	Source    string  `bun:"source"`
	Section   string  `bun:"section"`
	Title     string  `bun:"title"`
	PageStart int     `bun:"page_start"`
	PageEnd   int     `bun:"page_end"`
	Bucket    string  `bun:"bucket"`
	Distance  float64 `bun:"distance"`
}

// SearchSimilar returns the topK chunks nearest to the query embedding,
// closest first, optionally restricted to one bucket. The vector is bound
// as a parameter, never interpolated into the query text.
func (d *DB) SearchSimilar(ctx context.Context, embedding []float32, bucket string, topK int) ([]models.Candidate, error) {
	vec := pgvector.NewVector(embedding)

	q := d.bun.NewSelect().
		TableExpr("documents AS d").
		ColumnExpr("d.content, d.source, COALESCE(d.section, '') AS section, COALESCE(d.title, '') AS title").
		ColumnExpr("d.page_start, d.page_end, d.bucket").
		ColumnExpr("d.embedding <-> ? AS distance", vec).
		OrderExpr("d.embedding <-> ?", vec).
		Limit(topK)
	if bucket != "" {
		q = q.Where("d.bucket = ?", bucket)
	}

	var hits []searchHit
	if err := q.Scan(ctx, &hits); err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	candidates := make([]models.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = models.Candidate{
			Content:   h.Content,
			Source:    h.Source,
			Section:   h.Section,
			Title:     h.Title,
			PageStart: h.PageStart,
			PageEnd:   h.PageEnd,
			Bucket:    h.Bucket,
			Distance:  h.Distance,
		}
	}
	return candidates, nil
}

// InsertQueryLog records an answered query. Callers treat failures as
// non-critical.
func (d *DB) InsertQueryLog(ctx context.Context, query, bucket, answer string) error {
	row := &QueryLogRow{
		ID:     uuid.NewString(),
		Query:  query,
		Bucket: bucket,
		Answer: helper.Truncate(answer, models.AnswerLogLimit),
	}
	_, err := d.bun.NewInsert().Model(row).Exec(ctx)
	return err
}

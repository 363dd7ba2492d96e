// Package rag answers natural-language questions from the vector store:
// retrieval, source deduplication, prompt composition and answer generation.
package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tariff-rag/internal/embedding"
	"tariff-rag/internal/helper"
	"tariff-rag/internal/models"
)

// Store is the read side of the vector store.
type Store interface {
	SearchSimilar(ctx context.Context, embedding []float32, bucket string, topK int) ([]models.Candidate, error)
}

// Completer generates the final answer from the composed prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// QueryLogger persists answered queries. Implementations are best effort;
// the engine never lets their failures reach the caller.
type QueryLogger interface {
	InsertQueryLog(ctx context.Context, query, bucket, answer string) error
}

const (
	DefaultTopK = 6
	// DefaultMaxDistance bounds the L2 distance of usable candidates. A
	// cosine-distance variant of this pipeline used 0.4; with the <->
	// operator 1.2 is the equivalent cut.
	DefaultMaxDistance = 1.2
)

type RAG struct {
	store    Store
	embedder embedding.Embedder
	llm      Completer
	logs     QueryLogger // may be nil

	logWG sync.WaitGroup
}

func New(store Store, embedder embedding.Embedder, llm Completer, logs QueryLogger) *RAG {
	return &RAG{store: store, embedder: embedder, llm: llm, logs: logs}
}

// Options tune one query; zero values fall back to the defaults.
type Options struct {
	Bucket      string
	TopK        int
	MaxDistance float64
	History     []models.Turn
}

// Answer runs the retrieval flow for one query: embed, search, filter,
// dedupe, compose, generate, log. Retrieving nothing is a valid outcome and
// returns a fixed not-found message in the query's language; a failed
// generation is a hard error, since fabricating an answer would break the
// grounding guarantee.
func (r *RAG) Answer(ctx context.Context, query string, opts Options) (*models.AnswerResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	maxDistance := opts.MaxDistance
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}

	logger := log.With().Str("request_id", uuid.NewString()).Logger()

	vec, err := embedding.EmbedText(ctx, r.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var candidates []models.Candidate
	if len(vec) > 0 {
		candidates, err = r.store.SearchSimilar(ctx, vec, opts.Bucket, topK)
		if err != nil {
			return nil, fmt.Errorf("failed to search chunks: %w", err)
		}
	}

	candidates = FilterByDistance(candidates, maxDistance)
	candidates = DedupeBySource(candidates)
	logger.Debug().Str("bucket", opts.Bucket).Int("candidates", len(candidates)).Msg("retrieval done")

	if len(candidates) == 0 {
		result := &models.AnswerResult{
			Answer:  notFoundMessage(query),
			Sources: []models.Source{},
		}
		r.logAsync(ctx, logger, query, opts.Bucket, result.Answer)
		return result, nil
	}

	prompt := BuildPrompt(query, candidates, opts.History)
	answer, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	result := &models.AnswerResult{Answer: answer, Sources: Sources(candidates)}
	r.logAsync(ctx, logger, query, opts.Bucket, answer)
	return result, nil
}

// FilterByDistance drops candidates beyond maxDistance. An empty result is
// a normal retrieval outcome, not an error.
func FilterByDistance(candidates []models.Candidate, maxDistance float64) []models.Candidate {
	var kept []models.Candidate
	for _, c := range candidates {
		if c.Distance <= maxDistance {
			kept = append(kept, c)
		}
	}
	return kept
}

// DedupeBySource collapses candidates that cite the same document location
// (source, section, page range), keeping the closest one per location.
// Output order follows the first appearance of each location.
func DedupeBySource(candidates []models.Candidate) []models.Candidate {
	type key struct {
		source, section    string
		pageStart, pageEnd int
	}
	best := make(map[key]int, len(candidates))
	var kept []models.Candidate
	for _, c := range candidates {
		k := key{c.Source, c.Section, c.PageStart, c.PageEnd}
		if i, ok := best[k]; ok {
			if c.Distance < kept[i].Distance {
				kept[i] = c
			}
			continue
		}
		best[k] = len(kept)
		kept = append(kept, c)
	}
	return kept
}

// ContainsCJK reports whether the text has any CJK Unified Ideograph; it
// decides which language the answer should use.
func ContainsCJK(text string) bool {
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

func notFoundMessage(query string) string {
	if ContainsCJK(query) {
		return models.NotFoundZH
	}
	return models.NotFoundEN
}

// BuildContext concatenates candidates in retrieval order, each prefixed
// with its citation header.
func BuildContext(candidates []models.Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		if i > 0 {
			b.WriteString("\n\n")
		}
		section := c.Section
		if section == "" {
			section = "-"
		}
		fmt.Fprintf(&b, "[source: %s, section: %s, page: %d]\n%s", c.Source, section, c.PageStart, c.Content)
	}
	return b.String()
}

// BuildHistory renders the last HistoryWindow turns as alternating
// User/Assistant lines. Empty history renders to "".
func BuildHistory(history []models.Turn) string {
	if len(history) > models.HistoryWindow {
		history = history[len(history)-models.HistoryWindow:]
	}
	var b strings.Builder
	for _, turn := range history {
		role := "User"
		if turn.Role == models.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
	}
	return b.String()
}

// BuildPrompt composes the final model prompt from the context block, the
// trailing conversation window and the question.
func BuildPrompt(query string, candidates []models.Candidate, history []models.Turn) string {
	tmpl := models.BasePromptTemplate
	if ContainsCJK(query) {
		tmpl += models.ChineseAnswerNote
	}

	prompt := fmt.Sprintf(tmpl, BuildContext(candidates), query)
	if h := BuildHistory(history); h != "" {
		prompt = "Conversation so far:\n" + h + "\n" + prompt
	}
	return prompt
}

// Sources formats the surviving candidates for the caller, snippets capped
// per the API contract.
func Sources(candidates []models.Candidate) []models.Source {
	sources := make([]models.Source, len(candidates))
	for i, c := range candidates {
		sources[i] = models.Source{
			Doc:     c.Source,
			Page:    c.PageStart,
			Section: c.Section,
			Snippet: helper.Snippet(c.Content, models.SnippetLimit),
		}
	}
	return sources
}

// Drain blocks until in-flight query log writes finish, or gives up after
// timeout. Short-lived callers use it before exiting so logs actually land;
// long-running callers never need it.
func (r *RAG) Drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		r.logWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

// logAsync records the query without blocking or failing the response.
// Logging problems never reach the caller.
func (r *RAG) logAsync(ctx context.Context, logger zerolog.Logger, query, bucket, answer string) {
	if r.logs == nil {
		return
	}
	logCtx := context.WithoutCancel(ctx)
	r.logWG.Add(1)
	go func() {
		defer r.logWG.Done()
		defer func() {
			if rec := recover(); rec != nil {
				logger.Warn().Interface("panic", rec).Msg("query log panicked")
			}
		}()
		if err := r.logs.InsertQueryLog(logCtx, query, bucket, answer); err != nil {
			logger.Warn().Err(err).Msg("failed to record query log")
		}
	}()
}

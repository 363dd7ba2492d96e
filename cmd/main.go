package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tariff-rag/internal/chromemdb"
	"tariff-rag/internal/config"
	"tariff-rag/internal/db"
	"tariff-rag/internal/embedding"
	"tariff-rag/internal/helper"
	"tariff-rag/internal/ingest"
	"tariff-rag/internal/llmservice"
	"tariff-rag/internal/rag"
)

const defaultConfigPath = "./configs/config.yaml"

// vectorStore is what both backends provide: write side for ingestion and
// read side for retrieval.
type vectorStore interface {
	ingest.Store
	rag.Store
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file to ingest")
	bucket := flag.String("bucket", "", "Bucket (namespace) of the document or query")
	query := flag.String("query", "", "Query to be answered")
	topK := flag.Int("top", 0, "Number of chunks to retrieve (default from config)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *filePath != "" && *query != "" {
		log.Fatal().Msg("Please provide either a document file using the -file flag or a query using the -query flag, but not both")
	}

	if *filePath == "" && *query == "" {
		log.Fatal().Msg("Please provide either a document file using the -file flag or a query using the -query flag")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	store, logs, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	defer cleanup()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	if *filePath != "" {
		ingestFile(ctx, cfg, store, embedder, *filePath, *bucket)
		return
	}

	answerQuery(ctx, cfg, store, logs, embedder, *query, *bucket, *topK)
}

func openStore(ctx context.Context, cfg *config.Config) (vectorStore, rag.QueryLogger, func(), error) {
	switch cfg.Store.Backend {
	case "chromem":
		if !cfg.Store.InMemory {
			if err := helper.CreateFolder(cfg.Store.Path); err != nil {
				return nil, nil, nil, err
			}
		}
		store, err := chromemdb.NewStore(cfg.Store.Path, cfg.Store.Collection, cfg.Store.InMemory)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Debug().Msg("chromem backend has no query log; answered queries are not recorded")
		return store, nil, func() {}, nil
	default:
		d := db.Connect(&cfg.Database)
		if err := d.Init(ctx); err != nil {
			d.Close()
			return nil, nil, nil, err
		}
		return d, d, func() { d.Close() }, nil
	}
}

func ingestFile(ctx context.Context, cfg *config.Config, store vectorStore, embedder embedding.Embedder, filePath, bucket string) {
	pipeline := ingest.NewPipeline(store, embedder, &cfg.RAG)
	inserted, err := pipeline.IngestFile(ctx, filePath, bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	log.Info().Str("file", filePath).Int("inserted", inserted).Msg("Ingestion complete")
}

func answerQuery(ctx context.Context, cfg *config.Config, store vectorStore, logs rag.QueryLogger, embedder embedding.Embedder, query, bucket string, topK int) {
	llm, err := llmservice.NewClient(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	if topK <= 0 {
		topK = cfg.RAG.TopK
	}

	engine := rag.New(store, embedder, llm, logs)
	result, err := engine.Answer(ctx, query, rag.Options{
		Bucket:      bucket,
		TopK:        topK,
		MaxDistance: cfg.RAG.MaxDistance,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}
	// The query log write is fire and forget; give it a moment to land
	// before the process exits.
	defer engine.Drain(2 * time.Second)

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", result.Answer)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	helper.PrettyPrint(result.Sources)
}

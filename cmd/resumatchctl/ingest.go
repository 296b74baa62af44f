package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"resumatch/internal/config"
	"resumatch/internal/domain"
	"resumatch/internal/embedder"
	"resumatch/internal/extract"
	"resumatch/internal/ingest"
	"resumatch/internal/vectorstore"
)

var ingestFileType string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Run the ingestion pipeline once against a local file, outside the HTTP surface",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runIngest(args[0])
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFileType, "type", "resume", `"resume" or "job_description"`)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(path string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	fileType := domain.FileTypeResume
	if ingestFileType == string(domain.FileTypeJD) {
		fileType = domain.FileTypeJD
	}

	store, err := vectorstore.NewPostgresStore(cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("migrating vector store schema: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	locker := ingest.NewLocker(redisClient)

	extractor, err := extract.New(ctx)
	if err != nil {
		return fmt.Errorf("initializing text extractor: %w", err)
	}

	backend, err := embedder.NewGeminiBackend(ctx, cfg.Embedder.APIKey, cfg.Embedder.Model, cfg.Embedder.Dimensions)
	if err != nil {
		return fmt.Errorf("initializing embedding backend: %w", err)
	}
	embed := embedder.New(backend, embedder.Config{
		MaxAttempts: cfg.Embedder.MaxAttempts,
		BaseBackoff: cfg.Embedder.BaseBackoff.Seconds(),
		Jitter:      cfg.Embedder.BackoffJitter,
		QPMLimit:    cfg.Embedder.QPMLimit,
		BatchSize:   cfg.Embedder.BatchSize,
	})

	orchestrator := ingest.New(extractor, embed, store, locker, ingest.NoopPublisher{})

	doc, err := orchestrator.Ingest(ctx, path, fileType, raw)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	fmt.Printf("document_id=%s file_id=%s status=%s\n", doc.DocumentID, doc.FileID, doc.EmbeddingStatus)
	return nil
}

// Command server is resumatch's HTTP process entrypoint: it wires config,
// logging, tracing, metrics, storage, and every domain collaborator into a
// Hertz server, then serves until SIGINT/SIGTERM, mirroring the teacher's
// cmd/ai-agent-go/main.go init-order and shutdown shape.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resumatch/internal/api/handler"
	"resumatch/internal/api/router"
	"resumatch/internal/catalog"
	"resumatch/internal/config"
	"resumatch/internal/embedder"
	"resumatch/internal/extract"
	"resumatch/internal/feedback"
	"resumatch/internal/ingest"
	"resumatch/internal/llmclient"
	"resumatch/internal/logger"
	"resumatch/internal/match"
	"resumatch/internal/roadmap"
	"resumatch/internal/tracing"
	"resumatch/internal/vectorstore"
)

func main() {
	// Local .env is optional; the deployed service gets its secrets from the
	// environment directly, so a missing file here is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("")
	if err != nil {
		panic(err)
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.Logger = logger.Logger.With().Str("app", "resumatch").Logger()

	// Route Hertz's own framework-internal logging through the same zerolog
	// instance so request-routing warnings land in the same sink as domain logs.
	glog.SetLogger(hertzzerolog.From(logger.Logger))

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Enabled:     cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer shutdownTracing(ctx)

	store, err := vectorstore.NewPostgresStore(cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := store.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate vector store schema")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Warn().Err(err).Msg("failed to instrument redis client for tracing")
	}
	locker := ingest.NewLocker(redisClient)

	events, err := ingest.NewRabbitMQPublisher(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq unavailable, falling back to noop event publisher")
	}
	var eventPublisher ingest.EventPublisher = ingest.NoopPublisher{}
	if events != nil {
		eventPublisher = events
	}

	extractor, err := extract.New(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize text extractor")
	}

	embeddingBackend, err := embedder.NewGeminiBackend(ctx, cfg.Embedder.APIKey, cfg.Embedder.Model, cfg.Embedder.Dimensions)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedding backend")
	}
	embed := embedder.New(embeddingBackend, embedder.Config{
		MaxAttempts: cfg.Embedder.MaxAttempts,
		BaseBackoff: cfg.Embedder.BaseBackoff.Seconds(),
		Jitter:      cfg.Embedder.BackoffJitter,
		QPMLimit:    cfg.Embedder.QPMLimit,
		BatchSize:   cfg.Embedder.BatchSize,
	})

	orchestrator := ingest.New(extractor, embed, store, locker, eventPublisher)
	matcher := match.New(store)

	cat, err := catalog.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load resource catalog")
	}

	var chatModel model.ToolCallingChatModel
	if cfg.LLM.APIKey != "" {
		chatModel, err = llmclient.New(ctx, llmclient.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxAttempts: cfg.LLM.MaxRetries + 1,
			BaseBackoff: cfg.LLM.BaseBackoff.Seconds(),
			Jitter:      cfg.LLM.Jitter,
			QPMLimit:    cfg.LLM.QPMLimit,
			Timeout:     cfg.LLM.Timeout,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize LLM client")
		}
	} else {
		logger.Warn().Msg("no LLM API key configured; feedback falls back to deterministic summaries and roadmap generation will return upstream errors")
	}

	feedbackGen := feedback.New(chatModel)
	planner := roadmap.New(chatModel, cat)

	hdlr := handler.New(store, orchestrator, matcher, feedbackGen, planner, cat)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.Default(
		server.WithHostPorts(cfg.Server.Addr),
		server.WithReadTimeout(cfg.Server.ReadTimeout),
		server.WithWriteTimeout(cfg.Server.WriteTimeout),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.Register(h, hdlr)

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

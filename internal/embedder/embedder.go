// Package embedder maps chunk text to dense vectors, retrying transient
// provider failures with backoff and a circuit breaker, the way the
// teacher's processor package retries its LLM calls.
package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/sony/gobreaker/v2"

	"resumatch/internal/domain"
	"resumatch/internal/ratelimit"
	"resumatch/internal/tracing"
)

// ModelTag is recorded on every chunk so a future model swap is traceable.
const ModelTag = "text-embedding-3-small"

// Dimensions is the embedding width the vector store schema is sized for.
const Dimensions = 1536

// Embedder maps chunk texts to 1536-dim vectors, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config controls retry/backoff/circuit-breaker behavior.
type Config struct {
	MaxAttempts   int
	BaseBackoff   float64 // seconds
	Jitter        float64
	QPMLimit      int
	BatchSize     int
}

// DefaultEmbedder wraps an eino embedding.Embedder with the service's
// retry, rate-limit, and circuit-breaker policy.
type DefaultEmbedder struct {
	backend   embedding.Embedder
	limiter   *ratelimitAdapter
	breaker   *gobreaker.CircuitBreaker[[][]float64]
	batchSize int
}

type ratelimitAdapter struct {
	bucket *ratelimit.TokenBucket
}

// New builds a DefaultEmbedder around backend.
func New(backend embedding.Embedder, cfg Config) *DefaultEmbedder {
	bucket := ratelimit.NewTokenBucket(cfg.QPMLimit, 0)
	retries := cfg.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	bucket.WithRetryPolicy(time.Duration(cfg.BaseBackoff*float64(time.Second)), retries, cfg.Jitter)

	breaker := gobreaker.NewCircuitBreaker[[][]float64](gobreaker.Settings{
		Name:        "embedder",
		MaxRequests: 1,
		Interval:    0,
	})

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}

	return &DefaultEmbedder{
		backend:   backend,
		limiter:   &ratelimitAdapter{bucket: bucket},
		breaker:   breaker,
		batchSize: batchSize,
	}
}

// Embed maps texts to vectors, batching, rate-limiting, retrying with
// backoff+jitter, and preserving input order in the output.
func (e *DefaultEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	tracer := tracing.Tracer(tracing.EmbedderTracerName)
	ctx, span := tracer.Start(ctx, "embedder.Embed")
	defer span.End()

	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := e.embedBatch(ctx, batch)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeEmbedder)
			return nil, domain.NewUpstreamError("embedder.Embed", err.Error())
		}
		if len(vecs) != len(batch) {
			err := fmt.Errorf("embedder: got %d vectors for %d inputs", len(vecs), len(batch))
			tracing.RecordError(span, err, tracing.ErrorTypeEmbedder)
			return nil, domain.NewInternalError("embedder.Embed", err.Error())
		}
		out = append(out, vecs...)
	}

	return out, nil
}

func (e *DefaultEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var result [][]float64
	err := e.limiter.bucket.RetryWithBackoff(ctx, func() error {
		res, breakerErr := e.breaker.Execute(func() ([][]float64, error) {
			return e.backend.EmbedStrings(ctx, batch)
		})
		if breakerErr != nil {
			return breakerErr
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toFloat32(result), nil
}

func toFloat32(in [][]float64) [][]float32 {
	out := make([][]float32, len(in))
	for i, row := range in {
		conv := make([]float32, len(row))
		for j, v := range row {
			conv[j] = float32(v)
		}
		out[i] = conv
	}
	return out
}


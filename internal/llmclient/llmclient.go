// Package llmclient adapts Google's Gemini API, via google.golang.org/genai,
// to the eino model.ToolCallingChatModel interface the teacher's agent and
// parser packages are built against. Callers depend only on that interface;
// this package is the one place that knows about genai.
package llmclient

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"resumatch/internal/ratelimit"
	"resumatch/internal/tracing"
)

// Config controls model selection, timeouts, and retry/breaker policy.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxAttempts int
	BaseBackoff float64 // seconds
	Jitter      float64
	QPMLimit    int
	Timeout     time.Duration // per-call ceiling, spec §10: 120s for LLM calls
}

// GeminiChatModel implements model.ToolCallingChatModel against Gemini.
// Tool calling is not exercised by this service (feedback/roadmap generation
// are single-turn, schema-validated completions) so WithTools is a no-op
// that records the bound set for callers that inspect it.
type GeminiChatModel struct {
	client  *genai.Client
	cfg     Config
	limiter *ratelimit.TokenBucket
	breaker *gobreaker.CircuitBreaker[*schema.Message]
	tools   []*schema.ToolInfo
}

// New builds a GeminiChatModel. ctx is used only to construct the
// underlying genai client, not retained.
func New(ctx context.Context, cfg Config) (*GeminiChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llmclient: creating genai client: %w", err)
	}

	bucket := ratelimit.NewTokenBucket(cfg.QPMLimit, 0)
	retries := cfg.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	bucket.WithRetryPolicy(time.Duration(cfg.BaseBackoff*float64(time.Second)), retries, cfg.Jitter)

	breaker := gobreaker.NewCircuitBreaker[*schema.Message](gobreaker.Settings{
		Name:        "llmclient",
		MaxRequests: 1,
		Interval:    0,
	})

	return &GeminiChatModel{
		client:  client,
		cfg:     cfg,
		limiter: bucket,
		breaker: breaker,
	}, nil
}

// Generate sends messages to Gemini and returns the single completion,
// retrying transient failures with backoff and tripping the breaker on
// sustained failure, mirroring the teacher's LLMResumeChunker.callLLM.
func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	tracer := tracing.Tracer(tracing.LLMClientTracerName)
	ctx, span := tracer.Start(ctx, "llmclient.Generate")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	contents := toGenaiContents(messages)
	systemInstruction := systemInstructionOf(messages)

	var result *schema.Message
	err := g.limiter.RetryWithBackoff(callCtx, func() error {
		msg, breakerErr := g.breaker.Execute(func() (*schema.Message, error) {
			resp, genErr := g.client.Models.GenerateContent(callCtx, g.cfg.Model, contents, &genai.GenerateContentConfig{
				Temperature:       &g.cfg.Temperature,
				SystemInstruction: systemInstruction,
			})
			if genErr != nil {
				return nil, genErr
			}
			text := resp.Text()
			return &schema.Message{Role: schema.Assistant, Content: text}, nil
		})
		if breakerErr != nil {
			return breakerErr
		}
		result = msg
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, fmt.Errorf("llmclient: generate: %w", err)
	}
	return result, nil
}

// Stream is unused by this service (no streaming surface in spec §6); it
// exists only to satisfy model.ToolCallingChatModel.
func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("llmclient: streaming not supported")
}

// WithTools records the bound tool set. No component in this service binds
// tools today; kept to satisfy model.ToolCallingChatModel.
func (g *GeminiChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *g
	clone.tools = tools
	return &clone, nil
}

func (g *GeminiChatModel) timeout() time.Duration {
	if g.cfg.Timeout > 0 {
		return g.cfg.Timeout
	}
	return 120 * time.Second
}

func toGenaiContents(messages []*schema.Message) []*genai.Content {
	var out []*genai.Content
	for _, m := range messages {
		if m.Role == schema.System {
			continue
		}
		role := genai.RoleUser
		if m.Role == schema.Assistant {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}

func systemInstructionOf(messages []*schema.Message) *genai.Content {
	for _, m := range messages {
		if m.Role == schema.System {
			return &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		}
	}
	return nil
}

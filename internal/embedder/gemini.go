package embedder

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"
)

// GeminiBackend implements eino's embedding.Embedder against Gemini's
// embedding API, the same genai.Client idiom internal/llmclient uses for
// chat completions. DefaultEmbedder wraps this with retry/breaker/rate-limit
// policy, so this type stays a thin transport adapter.
type GeminiBackend struct {
	client *genai.Client
	model  string
	dims   int
}

// NewGeminiBackend builds a GeminiBackend. ctx is used only to construct the
// underlying genai client, not retained.
func NewGeminiBackend(ctx context.Context, apiKey, model string, dims int) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: creating genai client: %w", err)
	}
	if dims <= 0 {
		dims = Dimensions
	}
	return &GeminiBackend{client: client, model: model, dims: dims}, nil
}

// EmbedStrings satisfies eino's embedding.Embedder.
func (g *GeminiBackend) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}}
	}

	outDims := int32(g.dims)
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &outDims,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float64, len(texts))
	for i, e := range resp.Embeddings {
		vec := make([]float64, len(e.Values))
		for j, v := range e.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/hubenschmidt/presentation-copilot/internal/metrics"
)

// OpenAIClient embeds text via the OpenAI embeddings endpoint. Used as an
// alternate embedder backend alongside the default Ollama-style client,
// selected through the same engine-name router.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed embedder. model is typically
// "text-embedding-3-small".
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Embed returns the embedding vector for a single string.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return vecs[0], nil
}

// EmbedBatch embeds multiple strings in one request.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	start := time.Now()

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		metrics.Errors.WithLabelValues("embed", "openai").Inc()
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	out := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}

	metrics.StageDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	return out, nil
}

// Package embed maps text to a real vector via a pluggable backend. It does
// no caching itself; the slide matcher keeps its own small LRU of speech
// embeddings.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hubenschmidt/presentation-copilot/internal/metrics"
	"github.com/hubenschmidt/presentation-copilot/internal/netutil"
)

// Embedder is the contract the slide index and matcher need from an
// embedding backend. Batch calls embed multiple strings in one request.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Client talks to an Ollama-style /api/embed endpoint.
type Client struct {
	url    string
	model  string
	client *http.Client
}

// NewClient creates an Ollama-backed embedding client.
func NewClient(url, model string, poolSize int) *Client {
	return &Client{
		url:    url,
		model:  model,
		client: netutil.NewPooledHTTPClient(poolSize, 30*time.Second),
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns the embedding vector for a single string.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
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
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	start := time.Now()

	body, err := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("embed", "http").Inc()
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("embed", "status").Inc()
		return nil, fmt.Errorf("embed status %d", resp.StatusCode)
	}

	var result embedResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	metrics.StageDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	return result.Embeddings, nil
}

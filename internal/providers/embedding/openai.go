// Package embedding implements the remote embedding provider boundary.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sandevgo/voxmem/internal/config"
	"github.com/sandevgo/voxmem/pkg/retry"
)

// OpenAIProvider calls the OpenAI embeddings API. Every call carries a
// bounded timeout and transient failures are retried with backoff; auth and
// other client errors fail immediately.
type OpenAIProvider struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	dims    int
	timeout time.Duration
	retrier *retry.Retrier
}

func NewOpenAIProvider(cfg *config.OpenAIConfig) *OpenAIProvider {
	return &OpenAIProvider{
		client:  openai.NewClient(cfg.APIKey),
		model:   openai.EmbeddingModel(cfg.Model),
		dims:    cfg.Dimensions,
		timeout: cfg.Timeout,
		retrier: retry.NewDefaultRetrier(),
	}
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dims
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openai.EmbeddingResponse
	var permanent error

	err := p.retrier.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		var err error
		resp, err = p.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input:      texts,
			Model:      p.model,
			Dimensions: p.dims,
		})
		if err != nil && !isTransient(err) {
			permanent = err
			return nil // stop retrying, surfaced below
		}
		return err
	})
	if permanent != nil {
		return nil, fmt.Errorf("openai embeddings: %w", permanent)
	}
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// isTransient reports whether the error is worth another attempt: timeouts,
// rate limits, and server-side failures are; auth and request errors are not.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return true
}

package core

import "context"

// EmbeddingProvider converts text into fixed-length vectors via a remote
// model. Calls may fail transiently (timeout, rate limit) or fatally (auth).
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

package core

import (
	"context"
	"time"
)

// VectorIndex is the vector search backend holding highlight embeddings.
// Search is always scoped to a single user; implementations must never let
// one user's documents surface for another.
type VectorIndex interface {
	Add(ctx context.Context, h Highlight, embedding []float32) error
	Search(ctx context.Context, userID string, embedding []float32, limit int) ([]MemoryDocument, error)
}

// KV is the durable key-value store backing the embedding cache and
// persisted topic state. Entries expire after their TTL; a zero TTL means
// no expiry. Keys enumerates live keys under a prefix for maintenance.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// TopicStore holds per-conversation topic state. Entries mirror the owning
// conversation session's TTL and must not outlive it.
type TopicStore interface {
	Get(ctx context.Context, conversationID string) (*TopicState, error)
	Put(ctx context.Context, conversationID string, state *TopicState) error
	Delete(ctx context.Context, conversationID string) error
}

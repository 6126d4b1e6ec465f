package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/voxmem/internal/core"
)

const kvPrefix = "topic:"

// KVStore persists topic state through a core.KV as JSON, with the session
// TTL applied on every write so state expires with its conversation.
type KVStore struct {
	kv  core.KV
	ttl time.Duration
}

func NewKVStore(kv core.KV, ttl time.Duration) *KVStore {
	return &KVStore{
		kv:  kv,
		ttl: ttl,
	}
}

func (s *KVStore) Get(ctx context.Context, conversationID string) (*core.TopicState, error) {
	blob, ok, err := s.kv.Get(ctx, kvPrefix+conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic state: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var st core.TopicState
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, fmt.Errorf("failed to decode topic state: %w", err)
	}
	return &st, nil
}

func (s *KVStore) Put(ctx context.Context, conversationID string, state *core.TopicState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode topic state: %w", err)
	}
	if err := s.kv.Set(ctx, kvPrefix+conversationID, blob, s.ttl); err != nil {
		return fmt.Errorf("failed to write topic state: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, conversationID string) error {
	return s.kv.Delete(ctx, kvPrefix+conversationID)
}

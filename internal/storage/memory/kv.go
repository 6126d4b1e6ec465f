// Package memory holds in-process implementations of the storage
// interfaces, used by tests and by deployments that can afford to lose
// state on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type kvEntry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

// KV is a concurrency-safe in-memory core.KV with lazy expiry.
type KV struct {
	mu      sync.RWMutex
	entries map[string]kvEntry
	now     func() time.Time
}

func NewKV() *KV {
	return &KV{
		entries: make(map[string]kvEntry),
		now:     time.Now,
	}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (s *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = kvEntry{value: cp, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *KV) Keys(ctx context.Context, prefix string) ([]string, error) {
	now := s.now()

	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
			continue
		}
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

// SetClock overrides the time source. Tests use it to fast-forward TTLs.
func (s *KV) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

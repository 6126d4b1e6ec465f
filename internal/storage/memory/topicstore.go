package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/voxmem/internal/core"
)

// TopicStore is an in-memory core.TopicStore whose entries expire ttl after
// their last write, mirroring the owning conversation session.
type TopicStore struct {
	mu     sync.RWMutex
	states map[string]topicEntry
	ttl    time.Duration
	now    func() time.Time
}

type topicEntry struct {
	state     core.TopicState
	expiresAt time.Time
}

func NewTopicStore(ttl time.Duration) *TopicStore {
	return &TopicStore{
		states: make(map[string]topicEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TopicStore) Get(ctx context.Context, conversationID string) (*core.TopicState, error) {
	s.mu.RLock()
	e, ok := s.states[conversationID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.states, conversationID)
		s.mu.Unlock()
		return nil, nil
	}

	cp := e.state
	cp.TopicVector = append([]float32(nil), e.state.TopicVector...)
	if len(cp.TopicVector) == 0 {
		cp.TopicVector = nil
	}
	return &cp, nil
}

func (s *TopicStore) Put(ctx context.Context, conversationID string, state *core.TopicState) error {
	cp := *state
	cp.TopicVector = append([]float32(nil), state.TopicVector...)
	if len(cp.TopicVector) == 0 {
		cp.TopicVector = nil
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.states[conversationID] = topicEntry{state: cp, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *TopicStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.states, conversationID)
	s.mu.Unlock()
	return nil
}

// SetClock overrides the time source for tests.
func (s *TopicStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

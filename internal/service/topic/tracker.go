// Package topic tracks the evolving subject of each conversation: an
// exponentially-smoothed topic vector, a substantive-message count, and a
// fatigue score that discourages re-retrieving memory for a topic the user
// keeps dwelling on.
package topic

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/voxmem/internal/config"
	"github.com/sandevgo/voxmem/internal/core"
	"github.com/sandevgo/voxmem/internal/kmutex"
	"github.com/sandevgo/voxmem/internal/vec"
	"github.com/sandevgo/voxmem/pkg/log"
)

// Tracker owns all TopicState mutation. State lives in an injected store so
// tests can substitute an in-memory one; the tracker serializes access per
// conversation and conversations never interact.
type Tracker struct {
	store core.TopicStore
	cfg   *config.RAGConfig
	locks *kmutex.KeyedMutex
}

func NewTracker(store core.TopicStore, cfg *config.RAGConfig) *Tracker {
	return &Tracker{
		store: store,
		cfg:   cfg,
		locks: kmutex.New(),
	}
}

// DetectTopicChange decides whether the new embedding represents a different
// subject than the tracked topic vector. The first substantive message of a
// conversation is always a change. Otherwise a change is declared when
// similarity drops below the change threshold, or when fatigue has saturated
// even though similarity is still high.
//
// The decision is recorded on the state so the follow-up UpdateTopicState
// knows whether to accumulate fatigue.
func (t *Tracker) DetectTopicChange(ctx context.Context, conversationID string, newEmbedding []float32, messageLength int) (bool, error) {
	unlock := t.locks.Lock(conversationID)
	defer unlock()

	st, err := t.load(ctx, conversationID)
	if err != nil {
		return false, err
	}

	var changed bool
	if st.TopicVector == nil {
		changed = true
	} else {
		similarity := vec.CosineSimilarity(st.TopicVector, newEmbedding)
		changed = similarity < t.cfg.TopicChangeThreshold || st.FatigueScore > t.cfg.FatigueSaturation

		log.FromCtx(ctx).Debug().
			Str("conversation_id", conversationID).
			Float64("similarity", similarity).
			Float64("fatigue", st.FatigueScore).
			Int("message_length", messageLength).
			Bool("changed", changed).
			Msg("topic change detection")
	}

	st.ChangeDeclared = changed
	if err := t.store.Put(ctx, conversationID, st); err != nil {
		return false, fmt.Errorf("failed to record topic decision: %w", err)
	}

	return changed, nil
}

// UpdateTopicState folds the new embedding into the conversation's topic
// model. It runs on every substantive message regardless of the change
// decision: the vector is blended toward the new embedding rather than
// replaced, the message count advances, and fatigue accumulates only when
// the turn stayed on topic.
func (t *Tracker) UpdateTopicState(ctx context.Context, conversationID string, newEmbedding []float32, messageLength int) error {
	unlock := t.locks.Lock(conversationID)
	defer unlock()

	st, err := t.load(ctx, conversationID)
	if err != nil {
		return err
	}

	if st.TopicVector == nil {
		st.TopicVector = append([]float32(nil), newEmbedding...)
		st.MessageCount = 1
		st.FatigueScore = 0
	} else {
		st.TopicVector = vec.Blend(st.TopicVector, newEmbedding, t.cfg.EMAWeight)
		st.MessageCount++
		if !st.ChangeDeclared {
			st.FatigueScore = min(st.FatigueScore+t.cfg.FatigueIncrement, 1.0)
		}
	}

	st.ChangeDeclared = false
	st.LastUpdatedAt = time.Now()

	if err := t.store.Put(ctx, conversationID, st); err != nil {
		return fmt.Errorf("failed to update topic state: %w", err)
	}
	return nil
}

// ResetFatigue zeroes the fatigue score. Called by the orchestrator after it
// has acted on a detected topic change.
func (t *Tracker) ResetFatigue(ctx context.Context, conversationID string) error {
	unlock := t.locks.Lock(conversationID)
	defer unlock()

	st, err := t.load(ctx, conversationID)
	if err != nil {
		return err
	}
	if st.TopicVector == nil && st.MessageCount == 0 && st.FatigueScore == 0 && !st.ChangeDeclared {
		// Nothing tracked yet, nothing to reset.
		return nil
	}

	st.FatigueScore = 0
	if err := t.store.Put(ctx, conversationID, st); err != nil {
		return fmt.Errorf("failed to reset fatigue: %w", err)
	}
	return nil
}

// EndConversation discards the state when the owning session expires.
func (t *Tracker) EndConversation(ctx context.Context, conversationID string) error {
	unlock := t.locks.Lock(conversationID)
	defer unlock()

	return t.store.Delete(ctx, conversationID)
}

// State returns a copy of the tracked state, or nil when the conversation
// has no substantive history yet.
func (t *Tracker) State(ctx context.Context, conversationID string) (*core.TopicState, error) {
	unlock := t.locks.Lock(conversationID)
	defer unlock()

	st, err := t.store.Get(ctx, conversationID)
	if err != nil || st == nil {
		return nil, err
	}
	cp := *st
	cp.TopicVector = append([]float32(nil), st.TopicVector...)
	return &cp, nil
}

func (t *Tracker) load(ctx context.Context, conversationID string) (*core.TopicState, error) {
	st, err := t.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic state: %w", err)
	}
	if st == nil {
		st = &core.TopicState{}
	}
	return st, nil
}

// Package rag sequences the per-turn retrieval decision: gate the utterance,
// embed it, detect a topic change, retrieve and format memories when the
// topic moved, and fold the turn into the topic state. A failure anywhere
// degrades to the neutral "no context" verdict; this subsystem must never
// block or corrupt the conversational turn it serves.
package rag

import (
	"context"

	"github.com/sandevgo/voxmem/internal/config"
	"github.com/sandevgo/voxmem/internal/core"
	"github.com/sandevgo/voxmem/internal/kmutex"
	"github.com/sandevgo/voxmem/internal/service/intent"
	"github.com/sandevgo/voxmem/internal/service/text"
	"github.com/sandevgo/voxmem/pkg/log"
)

type EmbeddingCache interface {
	Embed(ctx context.Context, text string) ([]float32, bool, error)
}

type TopicTracker interface {
	DetectTopicChange(ctx context.Context, conversationID string, newEmbedding []float32, messageLength int) (bool, error)
	UpdateTopicState(ctx context.Context, conversationID string, newEmbedding []float32, messageLength int) error
	ResetFatigue(ctx context.Context, conversationID string) error
}

type MemoryRetriever interface {
	RetrieveMemories(ctx context.Context, userID string, queryEmbedding []float32, limit int, threshold float64) core.RetrievalResult
	FormatMemoriesForContext(highlights []string) string
}

type Orchestrator struct {
	cache     EmbeddingCache
	tracker   TopicTracker
	retriever MemoryRetriever
	cfg       *config.RAGConfig

	// turns serializes full turns per conversation: a turn's state update
	// must land before the next turn's change detection reads it.
	turns *kmutex.KeyedMutex
}

func NewOrchestrator(cache EmbeddingCache, tracker TopicTracker, retriever MemoryRetriever, cfg *config.RAGConfig) *Orchestrator {
	return &Orchestrator{
		cache:     cache,
		tracker:   tracker,
		retriever: retriever,
		cfg:       cfg,
		turns:     kmutex.New(),
	}
}

var neutral = core.RAGContext{}

// ProcessMessage runs the retrieval decision for one turn and returns the
// context-injection verdict. It never returns an error: on any failure the
// agent simply answers without historical context for this turn.
func (o *Orchestrator) ProcessMessage(ctx context.Context, conversationID, userID, userMessage string) core.RAGContext {
	logger := log.FromCtx(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Any("panic", r).Msg("rag pipeline panicked, turn continues without context")
		}
	}()

	classification := intent.Classify(userMessage)
	if !classification.ShouldProcessRAG {
		logger.Debug().
			Str("conversation_id", conversationID).
			Int("words", classification.MessageLength).
			Msg("turn gated out, skipping retrieval")
		return neutral
	}

	// Diagnostic only; key terms never gate.
	if terms := text.ExtractKeyTerms(userMessage); len(terms) > 0 {
		logger.Debug().Strs("key_terms", terms).Msg("substantive turn")
	}

	unlock := o.turns.Lock(conversationID)
	defer unlock()

	embedding, fromCache, err := o.cache.Embed(ctx, userMessage)
	if err != nil {
		logger.Warn().Err(err).Msg("embedding failed, turn continues without context")
		return neutral
	}
	logger.Debug().Bool("from_cache", fromCache).Msg("obtained query embedding")

	changed, err := o.tracker.DetectTopicChange(ctx, conversationID, embedding, classification.MessageLength)
	if err != nil {
		logger.Warn().Err(err).Msg("topic detection failed, turn continues without context")
		return neutral
	}

	var memories string
	if changed {
		if err := o.tracker.ResetFatigue(ctx, conversationID); err != nil {
			logger.Warn().Err(err).Msg("fatigue reset failed, turn continues without context")
			return neutral
		}

		threshold := intent.SimilarityThreshold(classification)
		result := o.retriever.RetrieveMemories(ctx, userID, embedding, o.cfg.RetrievalLimit, threshold)
		memories = o.retriever.FormatMemoriesForContext(result.Highlights)
	}

	if err := o.tracker.UpdateTopicState(ctx, conversationID, embedding, classification.MessageLength); err != nil {
		logger.Warn().Err(err).Msg("topic state update failed, turn continues without context")
		return neutral
	}

	return core.RAGContext{
		RelevantMemories:    memories,
		ShouldInjectContext: changed && memories != "",
	}
}

// Package ingest is the write path the retriever reads from: it embeds a
// highlight through the shared cache and upserts it into the vector index.
// Post-call summarization lives outside this core; whatever produces
// highlights calls in here.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/voxmem/internal/core"
	"github.com/sandevgo/voxmem/pkg/log"
)

type EmbeddingCache interface {
	Embed(ctx context.Context, text string) ([]float32, bool, error)
}

type Ingestor struct {
	cache EmbeddingCache
	index core.VectorIndex
}

func NewIngestor(cache EmbeddingCache, index core.VectorIndex) *Ingestor {
	return &Ingestor{
		cache: cache,
		index: index,
	}
}

// IngestHighlight stores one highlight for later retrieval. Unlike the read
// path, failures here propagate: losing a memory silently is worse than the
// caller retrying.
func (g *Ingestor) IngestHighlight(ctx context.Context, userID, conversationID, content string) (core.Highlight, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return core.Highlight{}, fmt.Errorf("highlight content is empty")
	}
	if userID == "" {
		return core.Highlight{}, fmt.Errorf("highlight requires a user id")
	}

	embedding, fromCache, err := g.cache.Embed(ctx, content)
	if err != nil {
		return core.Highlight{}, fmt.Errorf("embed highlight: %w", err)
	}

	h := core.Highlight{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	if err := g.index.Add(ctx, h, embedding); err != nil {
		return core.Highlight{}, fmt.Errorf("index highlight: %w", err)
	}

	log.FromCtx(ctx).Debug().
		Str("highlight_id", h.ID).
		Str("user_id", userID).
		Bool("embedding_cached", fromCache).
		Msg("ingested highlight")

	return h, nil
}

// Package retrieval answers "what historical highlights are worth surfacing
// for this query". Retrieval is best-effort by contract: any index failure
// degrades to an empty result, never an error.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sandevgo/voxmem/internal/config"
	"github.com/sandevgo/voxmem/internal/core"
	"github.com/sandevgo/voxmem/pkg/log"
)

const contextHeader = "Relevant context from previous conversations (use for continuity, do not invent details beyond what is listed):"

type Retriever struct {
	index core.VectorIndex
	cfg   *config.RAGConfig
}

func NewRetriever(index core.VectorIndex, cfg *config.RAGConfig) *Retriever {
	return &Retriever{
		index: index,
		cfg:   cfg,
	}
}

// RetrieveMemories finds the user's nearest historical highlights and keeps
// those scoring above the caller-supplied threshold. When nothing clears the
// bar but the index did return candidates, the configured minimum count is
// served anyway: stale continuity beats none on a live call.
func (r *Retriever) RetrieveMemories(ctx context.Context, userID string, queryEmbedding []float32, limit int, threshold float64) core.RetrievalResult {
	logger := log.FromCtx(ctx)

	if limit <= 0 {
		limit = r.cfg.RetrievalLimit
	}

	docs, err := r.index.Search(ctx, userID, queryEmbedding, limit)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("memory search failed, continuing without memories")
		return core.RetrievalResult{}
	}
	if len(docs) == 0 {
		return core.RetrievalResult{}
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })

	var kept []core.MemoryDocument
	for _, d := range docs {
		if d.Score > threshold {
			kept = append(kept, d)
		}
	}

	if len(kept) == 0 && r.cfg.MinResults > 0 {
		n := r.cfg.MinResults
		if n > len(docs) {
			n = len(docs)
		}
		kept = docs[:n]
		logger.Debug().
			Int("count", n).
			Float64("threshold", threshold).
			Msg("no memories above threshold, serving best-effort fallback")
	}

	result := core.RetrievalResult{Documents: kept}
	for _, d := range kept {
		result.Highlights = append(result.Highlights, d.PageContent)
	}

	logger.Debug().
		Int("raw", len(docs)).
		Int("kept", len(kept)).
		Msg("retrieved memories")

	return result
}

// FormatMemoriesForContext renders highlights as a numbered block framed by
// a continuity instruction, trimmed to the configured token budget. Empty
// input renders an empty string.
func (r *Retriever) FormatMemoriesForContext(highlights []string) string {
	if len(highlights) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	sb.WriteString("\n")

	budget := r.cfg.ContextTokenBudget
	used := countTokens(contextHeader)

	for i, h := range highlights {
		line := fmt.Sprintf("%d. %s", i+1, h)
		cost := countTokens(line)
		if budget > 0 && i > 0 && used+cost > budget {
			break
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		used += cost
	}

	return sb.String()
}

var (
	tkOnce sync.Once
	tk     *tiktoken.Tiktoken
)

func countTokens(s string) int {
	tkOnce.Do(func() {
		var err error
		tk, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			tk = nil
		}
	})
	if tk == nil {
		// Rough fallback when the encoding is unavailable offline.
		return len(s) / 4
	}
	return len(tk.Encode(s, nil, nil))
}

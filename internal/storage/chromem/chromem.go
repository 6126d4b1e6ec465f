// Package chromem provides an in-process core.VectorIndex on top of
// chromem-go, a pure Go embedded vector database. Non-durable; meant for
// development and tests, or deployments where highlights are rebuilt from an
// upstream source on start.
package chromem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/sandevgo/voxmem/internal/core"
)

// Index keeps one collection per user, so a search can only ever see the
// requesting user's highlights.
type Index struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

func New() *Index {
	return &Index{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

func (s *Index) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()

	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	col, err := s.db.CreateCollection(
		fmt.Sprintf("user_%s", userID),
		nil, // embeddings are always provided by the caller
		nil, // default cosine distance
	)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.collections[userID] = col
	return col, nil
}

func (s *Index) Add(ctx context.Context, h core.Highlight, embedding []float32) error {
	col, err := s.getOrCreateCollection(h.UserID)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        h.ID,
		Content:   h.Content,
		Embedding: embedding,
		Metadata: map[string]string{
			"user_id":         h.UserID,
			"conversation_id": h.ConversationID,
			"created_at":      h.CreatedAt.Format(time.RFC3339),
		},
	}

	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

func (s *Index) Search(ctx context.Context, userID string, embedding []float32, limit int) ([]core.MemoryDocument, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	// chromem-go rejects nResults larger than the collection; shrink until
	// the query fits, bottoming out at an empty result.
	var results []chromem.Result
	for currentLimit := limit; currentLimit >= 1; currentLimit-- {
		results, err = col.QueryEmbedding(ctx, embedding, currentLimit, nil, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if currentLimit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	docs := make([]core.MemoryDocument, 0, len(results))
	for _, res := range results {
		createdAt, _ := time.Parse(time.RFC3339, res.Metadata["created_at"])
		docs = append(docs, core.MemoryDocument{
			PageContent: res.Content,
			Metadata: map[string]any{
				"id":             res.ID,
				"userId":         res.Metadata["user_id"],
				"conversationId": res.Metadata["conversation_id"],
				"createdAt":      createdAt,
			},
			Score: float64(res.Similarity),
		})
	}

	return docs, nil
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}

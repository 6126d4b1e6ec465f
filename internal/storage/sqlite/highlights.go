package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/voxmem/internal/core"
	"github.com/sandevgo/voxmem/internal/vec"
)

// HighlightIndex is the durable core.VectorIndex backed by sqlite-vec.
type HighlightIndex struct {
	db *sql.DB
}

func NewHighlightIndex(db *sql.DB) *HighlightIndex {
	return &HighlightIndex{db: db}
}

// Add stores the highlight row and its embedding in one transaction.
func (r *HighlightIndex) Add(ctx context.Context, h core.Highlight, embedding []float32) error {
	blob, err := vec.Encode(embedding)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO highlights (id, user_id, conversation_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.ConversationID, h.Content, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert highlight: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO highlights_vec (id, user_id, embedding) VALUES (?, ?, ?)`,
		h.ID, h.UserID, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert highlight vector: %w", err)
	}

	return tx.Commit()
}

// Search returns the user's nearest highlights, best first. The vec0
// partition key restricts the KNN scan to the user's own rows; distance is
// cosine, converted to similarity as 1 - distance.
func (r *HighlightIndex) Search(ctx context.Context, userID string, embedding []float32, limit int) ([]core.MemoryDocument, error) {
	if limit <= 0 {
		return nil, nil
	}

	blob, err := vec.Encode(embedding)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT h.id, h.user_id, h.conversation_id, h.content, h.created_at, v.distance
		FROM highlights_vec v
		JOIN highlights h ON h.id = v.id
		WHERE v.user_id = ? AND v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`
	rows, err := r.db.QueryContext(ctx, query, userID, blob, limit)
	if err != nil {
		return nil, fmt.Errorf("highlight search failed: %w", err)
	}
	defer rows.Close()

	var docs []core.MemoryDocument
	for rows.Next() {
		var id, uid, convID, content string
		var createdAt time.Time
		var distance float64
		if err := rows.Scan(&id, &uid, &convID, &content, &createdAt, &distance); err != nil {
			return nil, err
		}

		docs = append(docs, core.MemoryDocument{
			PageContent: content,
			Metadata: map[string]any{
				"id":             id,
				"userId":         uid,
				"conversationId": convID,
				"createdAt":      createdAt,
			},
			Score: 1 - distance,
		})
	}

	return docs, rows.Err()
}

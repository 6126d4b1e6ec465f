package core

import "time"

// Highlight is a short summary fragment extracted from a past conversation,
// stored for semantic retrieval.
type Highlight struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// MemoryDocument is a retrieved highlight together with its similarity score.
// Metadata always carries at least user_id and conversation_id.
type MemoryDocument struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
	Score       float64        `json:"score"`
}

// RetrievalResult bundles the plain highlight strings with the scored
// documents they came from.
type RetrievalResult struct {
	Highlights []string         `json:"highlights"`
	Documents  []MemoryDocument `json:"documents"`
}

// TopicState is the evolving per-conversation topic model. TopicVector is nil
// iff MessageCount is zero.
type TopicState struct {
	TopicVector   []float32 `json:"topic_vector,omitempty"`
	MessageCount  int       `json:"message_count"`
	FatigueScore  float64   `json:"fatigue_score"`
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// ChangeDeclared records the outcome of the most recent change detection
	// so the follow-up state update knows whether to accumulate fatigue.
	ChangeDeclared bool `json:"change_declared"`
}

package core

const (
	VoxmemName          = "voxmem"
	VoxmemUserAgent     = "Voxmem-Agent/0.1"
	VoxmemRepositoryURL = "https://github.com/sandevgo/voxmem"
	VoxmemVersion       = "0.1.0"
)

// IntentClassification is the per-turn gating verdict. It is computed fresh
// for every message and never persisted.
type IntentClassification struct {
	ShouldProcessRAG      bool `json:"should_process_rag"`
	IsContinuation        bool `json:"is_continuation"`
	IsShortResponse       bool `json:"is_short_response"`
	MessageLength         int  `json:"message_length"` // word count
	HasSubstantiveContent bool `json:"has_substantive_content"`
}

// RAGContext is the outcome of one orchestration call.
// ShouldInjectContext is true only when RelevantMemories is non-empty.
type RAGContext struct {
	RelevantMemories    string `json:"relevant_memories"`
	ShouldInjectContext bool   `json:"should_inject_context"`
}

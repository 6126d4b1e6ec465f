package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/voxmem/pkg/log"
)

// RAGConfig carries the calibratable constants of the retrieval pipeline.
// The defaults are starting points, not truths; they are expected to be
// re-tuned per embedding model.
type RAGConfig struct {
	// TopicChangeThreshold is the cosine similarity below which a turn is
	// declared a topic change.
	TopicChangeThreshold float64 `env:"VOXMEM_TOPIC_CHANGE_THRESHOLD" envDefault:"0.55"`

	// FatigueIncrement is added to the fatigue score on every substantive
	// turn that stays on topic.
	FatigueIncrement float64 `env:"VOXMEM_FATIGUE_INCREMENT" envDefault:"0.1"`

	// FatigueSaturation forces a topic change once fatigue exceeds it, so a
	// long-dwelling topic eventually re-triggers retrieval.
	FatigueSaturation float64 `env:"VOXMEM_FATIGUE_SATURATION" envDefault:"0.8"`

	// EMAWeight is the weight of the new embedding when blending the topic
	// vector.
	EMAWeight float64 `env:"VOXMEM_EMA_WEIGHT" envDefault:"0.3"`

	// RetrievalLimit caps nearest-neighbour candidates per retrieval.
	RetrievalLimit int `env:"VOXMEM_RETRIEVAL_LIMIT" envDefault:"5"`

	// MinResults is the best-effort fallback count when nothing clears the
	// similarity threshold. Zero disables the fallback.
	MinResults int `env:"VOXMEM_MIN_RESULTS" envDefault:"1"`

	// ContextTokenBudget caps the token size of the formatted memory block.
	ContextTokenBudget int `env:"VOXMEM_CONTEXT_TOKEN_BUDGET" envDefault:"600"`

	// SessionTTL bounds how long per-conversation topic state outlives its
	// last update.
	SessionTTL time.Duration `env:"VOXMEM_SESSION_TTL" envDefault:"30m"`
}

func NewRAGConfig(ctx context.Context) *RAGConfig {
	c := &RAGConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse RAG config")
	}
	return c
}

package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/voxmem/pkg/log"
)

type OpenAIConfig struct {
	APIKey     string        `env:"OPENAI_API_KEY,required,notEmpty"`
	Model      string        `env:"VOXMEM_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Dimensions int           `env:"VOXMEM_EMBEDDING_DIMENSIONS" envDefault:"1536"`
	Timeout    time.Duration `env:"VOXMEM_EMBEDDING_TIMEOUT" envDefault:"10s"`
}

func NewOpenAIConfig(ctx context.Context) *OpenAIConfig {
	c := &OpenAIConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse OpenAI config")
	}
	return c
}

package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/voxmem/pkg/log"
)

type CacheConfig struct {
	// TTL bounds how long a cached embedding stays valid.
	TTL time.Duration `env:"VOXMEM_CACHE_TTL" envDefault:"24h"`

	// Namespace versions the cache key space. Bump it when the normalizer or
	// the embedding model changes so stale vectors never surface.
	Namespace string `env:"VOXMEM_CACHE_NAMESPACE" envDefault:"v1"`

	// HotMaxCost is the byte budget of the in-process ristretto tier.
	HotMaxCost int64 `env:"VOXMEM_CACHE_HOT_MAX_COST" envDefault:"33554432"`
}

func NewCacheConfig(ctx context.Context) *CacheConfig {
	c := &CacheConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Cache config")
	}
	return c
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/voxmem/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"VOXMEM_RUNTIME_PATH" envDefault:".voxmem"`

	// VectorBackend selects the highlight index: "sqlite" (durable, sqlite-vec)
	// or "chromem" (in-process, non-durable).
	VectorBackend string `env:"VOXMEM_VECTOR_BACKEND" envDefault:"sqlite"`

	// SweepInterval controls how often expired cache and topic-state rows are
	// purged from storage.
	SweepInterval time.Duration `env:"VOXMEM_SWEEP_INTERVAL" envDefault:"10m"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

// GetRuntimePath resolves a relative runtime path against the home
// directory, matching the package-level GetRuntimePath.
func (c AppConfig) GetRuntimePath() string {
	if filepath.IsAbs(c.RuntimePath) {
		return c.RuntimePath
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, c.RuntimePath)
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.GetRuntimePath(), "voxmem.db")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.GetRuntimePath(), ".env")
}

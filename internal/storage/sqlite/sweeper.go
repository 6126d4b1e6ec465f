package sqlite

import (
	"context"
	"time"

	"github.com/sandevgo/voxmem/pkg/log"
)

// Sweeper periodically purges expired kv rows. Runs as a background service
// so cache misses never pay the deletion cost inline.
type Sweeper struct {
	kv       *KVRepo
	interval time.Duration
}

func NewSweeper(kv *KVRepo, interval time.Duration) *Sweeper {
	return &Sweeper{
		kv:       kv,
		interval: interval,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "kv_sweeper").Logger()
	logger.Info().Dur("interval", s.interval).Msg("starting kv sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down kv sweeper")
			return nil
		case <-ticker.C:
			removed, err := s.kv.SweepExpired(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("sweep failed")
				continue
			}
			if removed > 0 {
				logger.Debug().Int64("removed", removed).Msg("swept expired entries")
			}
		}
	}
}

func (s *Sweeper) Shutdown(ctx context.Context) error {
	return nil
}

package srv

import (
	"context"

	"github.com/sandevgo/voxmem/pkg/log"
)

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// StartServices launches every service in its own goroutine. A start failure
// is fatal: the process must not run with half its background work missing.
func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			logger.Debug().Msgf("starting %T", service)
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msgf("%T failed to start", service)
			}
		}(service)
	}
}

// ShutdownServices blocks until ctx is cancelled, then shuts services down
// in registration order. Errors are logged, not returned: teardown always
// visits every service.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()
	logger := log.FromCtx(ctx)
	for _, service := range services {
		if err := service.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msgf("%T failed to shutdown", service)
		}
	}
	logger.Debug().Msg("all services stopped")
}

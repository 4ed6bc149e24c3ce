package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const EvictionSweepInterval = time.Minute

// sessionSweeper is implemented by service.SessionService.
type sessionSweeper interface {
	AbandonExpired(ctx context.Context) int
}

// EvictionWorker periodically sweeps the session store for sessions idle
// past the TTL and queues them as abandoned.
type EvictionWorker struct {
	sweeper sessionSweeper
	log     zerolog.Logger
}

func NewEvictionWorker(sweeper sessionSweeper, log zerolog.Logger) *EvictionWorker {
	return &EvictionWorker{
		sweeper: sweeper,
		log:     log.With().Str("component", "eviction_worker").Logger(),
	}
}

func (w *EvictionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EvictionWorker started")

	ticker := time.NewTicker(EvictionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		case <-ticker.C:
			if n := w.sweeper.AbandonExpired(ctx); n > 0 {
				w.log.Info().Int("abandoned", n).Msg("Idle sessions abandoned")
			}
		}
	}
}

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically evicts expired entries from the fallback store.
// Lazy eviction on read covers hot keys; the sweeper keeps keys that
// are never read again from accumulating while redis is down.
type Sweeper struct {
	fallback *Fallback
	interval time.Duration
}

func NewSweeper(fallback *Fallback, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{fallback: fallback, interval: interval}
}

// Run blocks until ctx is cancelled. Intended to be started as a
// goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	log.Info().Dur("interval", s.interval).Msg("cache sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("cache sweeper stopped")
			return
		case <-t.C:
			if n := s.fallback.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("swept expired fallback entries")
			}
		}
	}
}

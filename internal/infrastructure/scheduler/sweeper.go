package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/neocdt/cdt-bank-api/internal/api/metrics"
	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

const defaultInterval = 10 * time.Minute

// SweepLock gates a sweep tick behind a shared lease so only one instance
// sweeps at a time.
type SweepLock interface {
	TryAcquire(ctx context.Context, holder string, ttl time.Duration) (bool, error)
}

// Sweeper periodically escalates drafts older than 24h to en_validacion.
type Sweeper struct {
	service  ports.SolicitudeService
	lock     SweepLock
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper creates a Sweeper. If interval <= 0, defaultInterval is used.
// lock may be nil in single-instance setups (every tick runs).
func NewSweeper(service ports.SolicitudeService, lock SweepLock, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{service: service, lock: lock, interval: interval, log: log}
}

// Start launches the sweep loop. It runs one tick immediately, then every
// interval, and stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		s.tick(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *Sweeper) tick(ctx context.Context) {
	runID := uuid.New().String()
	log := s.log.With().Str("sweep_run", runID).Logger()

	if s.lock != nil {
		// Lease for the full interval: a second instance that loses the race
		// skips this tick entirely instead of retrying.
		ok, err := s.lock.TryAcquire(ctx, runID, s.interval)
		if err != nil {
			log.Warn().Err(err).Msg("sweep lock unavailable, skipping tick")
			return
		}
		if !ok {
			log.Debug().Msg("sweep lease held elsewhere, skipping tick")
			return
		}
	}

	count, err := s.service.SweepExpiredDrafts(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("sweep tick failed")
		return
	}
	if count > 0 {
		metrics.SweepMigratedTotal.Add(float64(count))
	}
	log.Debug().Int64("migrated", count).Msg("sweep tick complete")
}

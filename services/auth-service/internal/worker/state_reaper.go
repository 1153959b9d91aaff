// Package worker runs the background jobs of the auth service.
package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
)

const reapTimeout = 30 * time.Second

// StateReaper purges OAuth states that outlived their TTL. Reads already hide
// expired records; this keeps the store from growing between TTL monitor passes.
type StateReaper struct {
	cron      *cron.Cron
	stateRepo repository.OAuthStateRepository
	metrics   *metrics.Metrics
	logger    *zerolog.Logger
}

// NewStateReaper schedules the reaper on schedule, a robfig/cron expression such as "@every 1m".
func NewStateReaper(
	schedule string,
	stateRepo repository.OAuthStateRepository,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) (*StateReaper, error) {
	r := &StateReaper{
		cron:      cron.New(),
		stateRepo: stateRepo,
		metrics:   m,
		logger:    logger,
	}

	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
		defer cancel()
		r.RunOnce(ctx)
	}); err != nil {
		return nil, err
	}

	return r, nil
}

// Start starts the scheduler
func (r *StateReaper) Start() {
	r.cron.Start()
	r.logger.Info().Msg("oauth state reaper started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *StateReaper) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info().Msg("oauth state reaper stopped")
}

// RunOnce performs one purge and returns the number of removed states.
func (r *StateReaper) RunOnce(ctx context.Context) int64 {
	n, err := r.stateRepo.DeleteExpiredStates(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to purge expired oauth states")
		return 0
	}

	if n > 0 {
		r.metrics.ExpiredStatesPurged.Add(float64(n))
		r.logger.Debug().Int64("purged", n).Msg("purged expired oauth states")
	}

	return n
}

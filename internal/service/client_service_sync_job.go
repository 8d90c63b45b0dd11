package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type syncJob struct {
	orchestrator Orchestrator
	logger       *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob builds the background trigger for interval-mode syncing.
func NewSyncJob(orchestrator Orchestrator, log *logger.Logger) SyncJob {
	return &syncJob{orchestrator: orchestrator, logger: log}
}

// Start launches the ticker loop. interval is the tick period used when the
// user has not picked one; a per-settings interval takes precedence on each
// tick via the orchestrator's settings.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		lastRun := time.Time{}
		for {
			select {
			case <-ctx.Done():
				j.logger.Info().
					Str("func", "syncJob.Start").
					Msg("sync job stopped")
				return
			case now := <-ticker.C:
				j.tick(ctx, now, &lastRun)
			}
		}
	}()

	j.logger.Info().
		Str("func", "syncJob.Start").
		Dur("interval", interval).
		Msg("sync job started")
}

func (j *syncJob) tick(ctx context.Context, now time.Time, lastRun *time.Time) {
	settings := j.orchestrator.Settings()
	if !settings.Enabled || settings.Frequency != models.FrequencyInterval {
		return
	}
	if settings.Interval > 0 && now.Sub(*lastRun) < settings.Interval {
		return
	}
	if !j.orchestrator.CanSync() {
		return
	}

	*lastRun = now
	if err := j.orchestrator.Sync(j.logger.WithContext(ctx)); err != nil &&
		!errors.Is(err, ErrSyncInProgress) && !errors.Is(err, ErrSyncUnavailable) {
		j.logger.Warn().Err(err).
			Str("func", "syncJob.tick").
			Msg("scheduled sync failed")
	}
}

// Stop terminates the loop and waits for a running tick to return.
func (j *syncJob) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

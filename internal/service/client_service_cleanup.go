package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

// defaultRetentionDays applies until the user saves cleanup settings.
const defaultRetentionDays = 30

type cleanupService struct {
	entities  store.EntityRepository
	conflicts store.ConflictRepository
	queue     store.QueueRepository
	history   store.HistoryRepository
	settings  store.SettingsRepository
	logger    *logger.Logger
}

// NewCleanupService builds the cleanup service over the local repositories.
func NewCleanupService(
	entities store.EntityRepository,
	conflicts store.ConflictRepository,
	queue store.QueueRepository,
	history store.HistoryRepository,
	settings store.SettingsRepository,
	log *logger.Logger,
) CleanupService {
	return &cleanupService{
		entities:  entities,
		conflicts: conflicts,
		queue:     queue,
		history:   history,
		settings:  settings,
		logger:    log,
	}
}

// GetCleanupPreview reports what PerformCleanup would remove right now.
// Purely read-only.
func (c *cleanupService) GetCleanupPreview(ctx context.Context) (models.CleanupPreview, error) {
	cutoff, err := c.cutoff(ctx)
	if err != nil {
		return models.CleanupPreview{}, err
	}

	eligible, err := c.eligibleTombstones(ctx, cutoff)
	if err != nil {
		return models.CleanupPreview{}, err
	}

	preview := models.CleanupPreview{Tombstones: make(map[string]int)}
	for _, entity := range eligible {
		preview.Tombstones[entity.EntityType]++
	}

	if preview.ResolvedConflicts, err = c.conflicts.CountResolvedOlderThan(ctx, cutoff); err != nil {
		return models.CleanupPreview{}, err
	}
	if preview.SyncRecords, err = c.history.CountOlderThan(ctx, cutoff); err != nil {
		return models.CleanupPreview{}, err
	}
	return preview, nil
}

// PerformCleanup physically deletes the eligible set: tombstones past
// retention whose deletion has fully propagated, resolved conflict rows and
// aged history records. Safe to re-run; everything it removes is already
// represented on the server or no longer referenced.
func (c *cleanupService) PerformCleanup(ctx context.Context) (models.CleanupResult, error) {
	log := logger.FromContext(ctx)

	cutoff, err := c.cutoff(ctx)
	if err != nil {
		return models.CleanupResult{}, err
	}

	eligible, err := c.eligibleTombstones(ctx, cutoff)
	if err != nil {
		return models.CleanupResult{}, err
	}

	result := models.CleanupResult{Tombstones: make(map[string]int)}
	for _, entity := range eligible {
		if err := c.entities.Purge(ctx, entity.Key()); err != nil {
			return result, err
		}
		result.Tombstones[entity.EntityType]++
	}

	if result.ResolvedConflicts, err = c.conflicts.PurgeResolvedOlderThan(ctx, cutoff); err != nil {
		return result, err
	}
	if result.SyncRecords, err = c.history.PurgeOlderThan(ctx, cutoff); err != nil {
		return result, err
	}

	log.Info().
		Str("func", "cleanupService.PerformCleanup").
		Int("resolved_conflicts", result.ResolvedConflicts).
		Int("sync_records", result.SyncRecords).
		Interface("tombstones", result.Tombstones).
		Msg("cleanup finished")
	return result, nil
}

// eligibleTombstones filters aged tombstones down to the ones whose removal
// cannot lose information: no unresolved conflict references the entity and
// no queue item still has to deliver its deletion.
func (c *cleanupService) eligibleTombstones(ctx context.Context, cutoff time.Time) ([]models.Entity, error) {
	tombstones, err := c.entities.TombstonesOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	eligible := tombstones[:0]
	for _, entity := range tombstones {
		unresolved, err := c.conflicts.HasUnresolvedForEntity(ctx, entity.Key())
		if err != nil {
			return nil, err
		}
		if unresolved {
			continue
		}
		pending, err := c.queue.PendingForEntity(ctx, entity.Key())
		if err != nil {
			return nil, err
		}
		if pending {
			continue
		}
		eligible = append(eligible, entity)
	}
	return eligible, nil
}

func (c *cleanupService) cutoff(ctx context.Context) (time.Time, error) {
	settings, err := c.Settings(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().UTC().AddDate(0, 0, -settings.RetentionDays), nil
}

func (c *cleanupService) Settings(ctx context.Context) (models.CleanupSettings, error) {
	settings, found, err := c.settings.LoadCleanupSettings(ctx)
	if err != nil {
		return models.CleanupSettings{}, err
	}
	if !found {
		return models.CleanupSettings{AutoCleanup: false, RetentionDays: defaultRetentionDays}, nil
	}
	return settings, nil
}

func (c *cleanupService) UpdateSettings(ctx context.Context, settings models.CleanupSettings) error {
	if settings.RetentionDays < 0 {
		settings.RetentionDays = 0
	}
	return c.settings.SaveCleanupSettings(ctx, settings)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-ledger-sync/internal/adapter"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type mutationQueue struct {
	queue    store.QueueRepository
	entities store.EntityRepository
	settings store.SettingsRepository
	history  store.HistoryRepository
	remote   adapter.RemoteEndpoint
	resolver ConflictResolver
	logger   *logger.Logger
}

// NewMutationQueue builds the offline queue service on top of the durable
// queue repository and the remote endpoint.
func NewMutationQueue(
	queue store.QueueRepository,
	entities store.EntityRepository,
	settings store.SettingsRepository,
	history store.HistoryRepository,
	remote adapter.RemoteEndpoint,
	resolver ConflictResolver,
	log *logger.Logger,
) MutationQueue {
	return &mutationQueue{
		queue:    queue,
		entities: entities,
		settings: settings,
		history:  history,
		remote:   remote,
		resolver: resolver,
		logger:   log,
	}
}

// Enqueue persists the queue item and applies the mutation to the local
// dataset as tentative (dirty) state in the same logical step. Purely local:
// errors here never depend on connectivity.
func (q *mutationQueue) Enqueue(ctx context.Context, mutation models.Mutation) error {
	log := logger.FromContext(ctx)

	if err := validateMutation(mutation); err != nil {
		return err
	}

	now := time.Now().UTC()
	key := models.EntityKey{EntityType: mutation.EntityType, EntityID: mutation.EntityID}

	if mutation.Operation == models.OpDelete {
		if err := q.entities.SoftDelete(ctx, key, now); err != nil {
			return fmt.Errorf("failed to tombstone entity %s/%s: %w", key.EntityType, key.EntityID, err)
		}
	} else {
		entity := models.Entity{
			EntityType: mutation.EntityType,
			EntityID:   mutation.EntityID,
			Payload:    mutation.Payload,
			Dirty:      true,
			UpdatedAt:  now,
		}
		// An update keeps the version of the confirmed copy so the upload
		// bases on the right server version.
		if current, err := q.entities.Get(ctx, key); err == nil {
			entity.Version = current.Version
		} else if !errors.Is(err, store.ErrEntityNotFound) {
			return err
		}
		if err := q.entities.Upsert(ctx, entity); err != nil {
			return fmt.Errorf("failed to apply local write %s/%s: %w", key.EntityType, key.EntityID, err)
		}
	}

	item := models.QueueItem{
		ID:         uuid.NewString(),
		EntityType: mutation.EntityType,
		EntityID:   mutation.EntityID,
		Operation:  mutation.Operation,
		Payload:    mutation.Payload,
		Status:     models.QueuePending,
		EnqueuedAt: now,
	}
	if err := q.queue.Enqueue(ctx, item); err != nil {
		return err
	}

	log.Debug().
		Str("func", "mutationQueue.Enqueue").
		Str("entity_type", item.EntityType).
		Str("entity_id", item.EntityID).
		Str("operation", item.Operation).
		Msg("mutation enqueued")
	return nil
}

// ProcessQueue drains the queue one item at a time in enqueue order. An item
// that fails or conflicts blocks the remaining items of its entity for this
// drain; items of other entities continue. A connectivity loss aborts the
// whole drain with in-flight items returned to pending.
func (q *mutationQueue) ProcessQueue(ctx context.Context, progress func(done, total int)) (DrainResult, error) {
	log := logger.FromContext(ctx)

	deviceID, err := q.settings.DeviceID(ctx)
	if err != nil {
		return DrainResult{}, err
	}

	items, err := q.queue.Pending(ctx)
	if err != nil {
		return DrainResult{}, err
	}

	var result DrainResult
	total := len(items)
	blocked := make(map[models.EntityKey]bool)

	for i, item := range items {
		if progress != nil {
			progress(i, total)
		}
		if blocked[item.Key()] {
			result.Skipped++
			continue
		}

		if err := q.sendItem(ctx, deviceID, item, &result, blocked); err != nil {
			if _, resetErr := q.queue.ResetInFlight(ctx); resetErr != nil {
				log.Error().Err(resetErr).
					Str("func", "mutationQueue.ProcessQueue").
					Msg("failed to reset in-flight items after aborted drain")
			}
			return result, err
		}
	}
	if progress != nil {
		progress(total, total)
	}

	log.Info().
		Str("func", "mutationQueue.ProcessQueue").
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Int("conflicts", result.Conflicts).
		Int("skipped", result.Skipped).
		Msg("queue drained")
	return result, nil
}

// sendItem uploads one queue item. A non-nil error means the drain must
// abort (connectivity loss or rejected credentials); per-item failures are
// recorded on the item and swallowed.
func (q *mutationQueue) sendItem(ctx context.Context, deviceID string, item models.QueueItem, result *DrainResult, blocked map[models.EntityKey]bool) error {
	log := logger.FromContext(ctx)

	if err := q.queue.MarkInFlight(ctx, item.ID); err != nil {
		return err
	}

	upload := models.ChangeUpload{
		MutationID:     item.ID,
		EntityType:     item.EntityType,
		EntityID:       item.EntityID,
		Operation:      item.Operation,
		Payload:        item.Payload,
		LocalUpdatedAt: item.EnqueuedAt,
	}
	if entity, err := q.entities.Get(ctx, item.Key()); err == nil {
		upload.BaseVersion = entity.Version
	} else if !errors.Is(err, store.ErrEntityNotFound) {
		return err
	}

	resp, err := q.remote.Push(ctx, models.PushRequest{
		DeviceID:  deviceID,
		Mutations: []models.ChangeUpload{upload},
	})
	switch {
	case err == nil:
	case errors.Is(err, adapter.ErrConnectivity), errors.Is(err, adapter.ErrUnauthorized):
		return err
	case errors.Is(err, adapter.ErrValidation):
		if markErr := q.queue.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
			return markErr
		}
		result.Failed++
		blocked[item.Key()] = true
		return nil
	default:
		if _, recErr := q.queue.RecordFailure(ctx, item.ID, err.Error()); recErr != nil {
			return recErr
		}
		log.Warn().Err(err).
			Str("func", "mutationQueue.sendItem").
			Str("queue_item_id", item.ID).
			Msg("upload attempt failed")
		result.Failed++
		blocked[item.Key()] = true
		return nil
	}

	for _, accepted := range resp.Accepted {
		if accepted != item.ID {
			continue
		}
		if err := q.acknowledge(ctx, item, upload.BaseVersion+1); err != nil {
			return err
		}
		result.Sent++
		return nil
	}

	for _, pushConflict := range resp.Conflicts {
		if pushConflict.MutationID != item.ID {
			continue
		}
		recorded, err := q.resolver.RecordPushConflict(ctx, item, pushConflict)
		if err != nil {
			return err
		}
		if !recorded {
			// Both sides hold the same content. Converged silently, the
			// item has nothing left to deliver.
			if err := q.queue.Ack(ctx, item.ID); err != nil {
				return err
			}
			result.Sent++
			return nil
		}
		if err := q.queue.MarkFailed(ctx, item.ID, "version conflict"); err != nil {
			return err
		}
		result.Conflicts++
		blocked[item.Key()] = true
		return nil
	}

	// The server answered but named neither an ack nor a conflict for the
	// mutation. Treat as a retryable failure.
	if _, err := q.queue.RecordFailure(ctx, item.ID, "mutation missing from server response"); err != nil {
		return err
	}
	result.Failed++
	blocked[item.Key()] = true
	return nil
}

// acknowledge removes the acked item and confirms the local copy at the
// version the server assigned. The accepted base matched the server's
// current version, so the new server version is base+1.
func (q *mutationQueue) acknowledge(ctx context.Context, item models.QueueItem, newVersion int64) error {
	if err := q.queue.Ack(ctx, item.ID); err != nil {
		return err
	}
	if item.Operation == models.OpDelete {
		// The tombstone stays until cleanup; the server now knows about
		// the deletion so there is nothing to confirm.
		return nil
	}
	if err := q.entities.ClearDirty(ctx, item.Key(), newVersion); err != nil && !errors.Is(err, store.ErrEntityNotFound) {
		return err
	}
	return nil
}

func (q *mutationQueue) RetryFailedItems(ctx context.Context) (int, error) {
	n, err := q.queue.RetryFailed(ctx)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info().
		Str("func", "mutationQueue.RetryFailedItems").
		Int("retried", n).
		Msg("failed items returned to pending")
	return n, nil
}

func (q *mutationQueue) ClearQueue(ctx context.Context) error {
	return q.queue.Clear(ctx)
}

func (q *mutationQueue) Stats(ctx context.Context) (models.SyncStats, error) {
	counts, err := q.queue.CountByStatus(ctx)
	if err != nil {
		return models.SyncStats{}, err
	}
	synced, err := q.history.TotalItemsSynced(ctx)
	if err != nil {
		return models.SyncStats{}, err
	}

	stats := models.SyncStats{
		Pending: counts[models.QueuePending] + counts[models.QueueInFlight],
		Failed:  counts[models.QueueFailed],
		Synced:  synced,
	}
	stats.Queued = stats.Pending + stats.Failed
	return stats, nil
}

func validateMutation(m models.Mutation) error {
	if m.EntityType == "" || m.EntityID == "" {
		return fmt.Errorf("mutation must name an entity: got type=%q id=%q", m.EntityType, m.EntityID)
	}
	switch m.Operation {
	case models.OpCreate, models.OpUpdate, models.OpDelete:
		return nil
	default:
		return fmt.Errorf("unknown mutation operation %q", m.Operation)
	}
}

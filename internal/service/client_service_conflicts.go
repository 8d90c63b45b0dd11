// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type conflictResolver struct {
	conflicts store.ConflictRepository
	entities  store.EntityRepository
	queue     store.QueueRepository
	logger    *logger.Logger
}

// NewConflictResolver builds the resolver over the conflict, entity and
// queue repositories.
func NewConflictResolver(
	conflicts store.ConflictRepository,
	entities store.EntityRepository,
	queue store.QueueRepository,
	log *logger.Logger,
) ConflictResolver {
	return &conflictResolver{
		conflicts: conflicts,
		entities:  entities,
		queue:     queue,
		logger:    log,
	}
}

// ApplyRemoteChanges folds pulled deltas into the local dataset one entity
// at a time. Entities with no unacknowledged local work are overwritten
// directly. Entities the user touched offline are compared payload-wise:
// equal content converges silently, diverging content is frozen as an
// unresolved conflict with the local copy left intact.
func (r *conflictResolver) ApplyRemoteChanges(ctx context.Context, changes []models.RemoteChange) (int, int, error) {
	log := logger.FromContext(ctx)

	var applied, detected int
	for _, change := range changes {
		key := models.EntityKey{EntityType: change.EntityType, EntityID: change.EntityID}

		unresolved, err := r.conflicts.HasUnresolvedForEntity(ctx, key)
		if err != nil {
			return applied, detected, err
		}
		if unresolved {
			// The entity is already frozen behind an unresolved conflict.
			// The delta will be offered again after resolution because the
			// checkpoint does not advance past it.
			continue
		}

		dirty, err := r.queue.PendingForEntity(ctx, key)
		if err != nil {
			return applied, detected, err
		}
		if !dirty {
			if err := r.entities.ApplyRemote(ctx, change); err != nil {
				return applied, detected, err
			}
			applied++
			continue
		}

		converged, err := r.reconcileDirty(ctx, key, change)
		if err != nil {
			return applied, detected, err
		}
		if converged {
			applied++
		} else {
			detected++
		}
	}

	log.Info().
		Str("func", "conflictResolver.ApplyRemoteChanges").
		Int("applied", applied).
		Int("conflicts", detected).
		Msg("remote changes processed")
	return applied, detected, nil
}

// reconcileDirty handles a remote delta for an entity with unacknowledged
// local mutations. Returns true when both sides converged to the same
// content.
func (r *conflictResolver) reconcileDirty(ctx context.Context, key models.EntityKey, change models.RemoteChange) (bool, error) {
	local, err := r.entities.Get(ctx, key)
	if err != nil && !errors.Is(err, store.ErrEntityNotFound) {
		return false, err
	}
	localMissing := errors.Is(err, store.ErrEntityNotFound)

	sameDeletion := !localMissing && local.Deleted && change.Deleted
	samePayload := !localMissing && !local.Deleted && !change.Deleted && payloadEqual(local.Payload, change.Payload)

	if sameDeletion || samePayload {
		// Both sides did the same thing independently. Adopt the server
		// version and drop the now-redundant queued mutations.
		if err := r.entities.ApplyRemote(ctx, change); err != nil {
			return false, err
		}
		if err := r.queue.DeleteForEntity(ctx, key); err != nil {
			return false, err
		}
		return true, nil
	}

	conflict := models.SyncConflict{
		ID:                  uuid.NewString(),
		EntityType:          key.EntityType,
		EntityID:            key.EntityID,
		RemoteServerVersion: change.Version,
		DetectedAt:          time.Now().UTC(),
	}
	if !localMissing && !local.Deleted {
		conflict.LocalVersion = local.Payload
	}
	if !change.Deleted {
		conflict.RemoteVersion = change.Payload
	}
	return false, r.conflicts.Create(ctx, conflict)
}

// RecordPushConflict records a version conflict the server reported for an
// uploaded mutation. Equal content converges silently without a conflict
// row.
func (r *conflictResolver) RecordPushConflict(ctx context.Context, item models.QueueItem, pushConflict models.PushConflict) (bool, error) {
	key := item.Key()

	unresolved, err := r.conflicts.HasUnresolvedForEntity(ctx, key)
	if err != nil {
		return false, err
	}
	if unresolved {
		return true, nil
	}

	sameDeletion := item.Operation == models.OpDelete && pushConflict.RemoteDeleted
	samePayload := item.Operation != models.OpDelete && !pushConflict.RemoteDeleted &&
		payloadEqual(item.Payload, pushConflict.RemotePayload)

	if sameDeletion || samePayload {
		change := models.RemoteChange{
			EntityType: key.EntityType,
			EntityID:   key.EntityID,
			Payload:    pushConflict.RemotePayload,
			Version:    pushConflict.RemoteVersion,
			Deleted:    pushConflict.RemoteDeleted,
			UpdatedAt:  time.Now().UTC(),
		}
		return false, r.entities.ApplyRemote(ctx, change)
	}

	conflict := models.SyncConflict{
		ID:                  uuid.NewString(),
		EntityType:          key.EntityType,
		EntityID:            key.EntityID,
		RemoteServerVersion: pushConflict.RemoteVersion,
		DetectedAt:          time.Now().UTC(),
	}
	if item.Operation != models.OpDelete {
		conflict.LocalVersion = item.Payload
	}
	if !pushConflict.RemoteDeleted {
		conflict.RemoteVersion = pushConflict.RemotePayload
	}
	return true, r.conflicts.Create(ctx, conflict)
}

// ResolveConflict applies the chosen policy. Already-resolved conflicts are
// skipped without error so double-resolution from racing UI surfaces is
// harmless. An empty RemoteVersion on the conflict row means the remote
// side was a deletion.
func (r *conflictResolver) ResolveConflict(ctx context.Context, conflictID string, resolution models.Resolution) error {
	log := logger.FromContext(ctx)

	conflict, err := r.conflicts.Get(ctx, conflictID)
	if err != nil {
		return err
	}
	if conflict.IsResolved {
		log.Debug().
			Str("func", "conflictResolver.ResolveConflict").
			Str("conflict_id", conflictID).
			Msg("conflict already resolved, skipping")
		return nil
	}

	switch resolution.Policy {
	case models.ResolutionLocalWins, models.ResolutionRemoteWins:
	case models.ResolutionMerged, models.ResolutionManual:
		if len(resolution.Payload) == 0 {
			return fmt.Errorf("%w: policy %s", ErrEmptyResolutionPayload, resolution.Policy)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResolution, resolution.Policy)
	}

	// Mark first so the exactly-once guard holds even if a side effect
	// below fails; re-running a half-applied resolution must not create a
	// second divergence.
	if err := r.conflicts.MarkResolved(ctx, conflictID, resolution); err != nil {
		return err
	}

	switch resolution.Policy {
	case models.ResolutionLocalWins:
		err = r.applyLocalWins(ctx, conflict)
	case models.ResolutionRemoteWins:
		err = r.applyRemoteWins(ctx, conflict)
	case models.ResolutionMerged, models.ResolutionManual:
		err = r.applyChosenPayload(ctx, conflict, resolution.Payload)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("func", "conflictResolver.ResolveConflict").
		Str("conflict_id", conflictID).
		Str("policy", resolution.Policy).
		Msg("conflict resolved")
	return nil
}

// applyLocalWins re-bases the local copy on the remote server version and
// re-uploads it. Stale queued mutations for the entity are dropped so the
// re-upload is the single outstanding item.
func (r *conflictResolver) applyLocalWins(ctx context.Context, conflict models.SyncConflict) error {
	key := conflict.Key()
	if err := r.queue.DeleteForEntity(ctx, key); err != nil {
		return err
	}

	now := time.Now().UTC()
	operation := models.OpUpdate
	payload := conflict.LocalVersion
	if len(conflict.LocalVersion) == 0 {
		// Local side was the deletion: win by deleting remotely too.
		operation = models.OpDelete
		if err := r.entities.SoftDelete(ctx, key, now); err != nil && !errors.Is(err, store.ErrEntityNotFound) {
			return err
		}
	} else {
		entity := models.Entity{
			EntityType: key.EntityType,
			EntityID:   key.EntityID,
			Payload:    payload,
			Version:    conflict.RemoteServerVersion,
			Dirty:      true,
			UpdatedAt:  now,
		}
		if err := r.entities.Upsert(ctx, entity); err != nil {
			return err
		}
	}

	return r.queue.Enqueue(ctx, models.QueueItem{
		ID:         uuid.NewString(),
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Operation:  operation,
		Payload:    payload,
		Status:     models.QueuePending,
		EnqueuedAt: now,
	})
}

// applyRemoteWins discards the local divergence and adopts the server copy.
func (r *conflictResolver) applyRemoteWins(ctx context.Context, conflict models.SyncConflict) error {
	key := conflict.Key()
	if err := r.queue.DeleteForEntity(ctx, key); err != nil {
		return err
	}

	change := models.RemoteChange{
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Payload:    conflict.RemoteVersion,
		Version:    conflict.RemoteServerVersion,
		Deleted:    len(conflict.RemoteVersion) == 0,
		UpdatedAt:  time.Now().UTC(),
	}
	return r.entities.ApplyRemote(ctx, change)
}

// applyChosenPayload stores a merged or manual payload as the new local
// tentative state and queues it for upload based on the remote version.
func (r *conflictResolver) applyChosenPayload(ctx context.Context, conflict models.SyncConflict, payload json.RawMessage) error {
	key := conflict.Key()
	if err := r.queue.DeleteForEntity(ctx, key); err != nil {
		return err
	}

	now := time.Now().UTC()
	entity := models.Entity{
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Payload:    payload,
		Version:    conflict.RemoteServerVersion,
		Dirty:      true,
		UpdatedAt:  now,
	}
	if err := r.entities.Upsert(ctx, entity); err != nil {
		return err
	}

	return r.queue.Enqueue(ctx, models.QueueItem{
		ID:         uuid.NewString(),
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Operation:  models.OpUpdate,
		Payload:    payload,
		Status:     models.QueuePending,
		EnqueuedAt: now,
	})
}

// ResolveAllConflicts resolves the conflicts unresolved at call time with
// one uniform policy. Conflicts detected after the snapshot keep waiting.
func (r *conflictResolver) ResolveAllConflicts(ctx context.Context, resolution models.Resolution) (int, error) {
	snapshot, err := r.conflicts.Unresolved(ctx)
	if err != nil {
		return 0, err
	}

	var resolved int
	for _, conflict := range snapshot {
		if err := r.ResolveConflict(ctx, conflict.ID, resolution); err != nil {
			return resolved, fmt.Errorf("failed to resolve conflict %s: %w", conflict.ID, err)
		}
		resolved++
	}
	return resolved, nil
}

func (r *conflictResolver) Unresolved(ctx context.Context) ([]models.SyncConflict, error) {
	return r.conflicts.Unresolved(ctx)
}

func (r *conflictResolver) CountUnresolved(ctx context.Context) (int, error) {
	return r.conflicts.CountUnresolved(ctx)
}

// payloadEqual compares two JSON documents structurally so that formatting
// and key order differences do not count as divergence.
func payloadEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

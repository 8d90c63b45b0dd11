package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-ledger-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// QueueRepository is the durable ordered log of pending mutations.
// Items are removed only via Ack after server acknowledgment.
type QueueRepository interface {
	// Enqueue appends a new item with status pending. Purely local, never
	// touches the network.
	Enqueue(ctx context.Context, item models.QueueItem) error

	// Pending returns all pending items in enqueue order.
	Pending(ctx context.Context) ([]models.QueueItem, error)

	// PendingForEntity reports whether the entity has at least one
	// unacknowledged (pending, in-flight or failed) item.
	PendingForEntity(ctx context.Context, key models.EntityKey) (bool, error)

	// MarkInFlight transitions an item to in_flight before the upload.
	MarkInFlight(ctx context.Context, id string) error

	// Ack removes an item after the server confirmed it.
	Ack(ctx context.Context, id string) error

	// RecordFailure increments the attempt counter, stores the error text
	// and parks the item as failed once the attempt cap is exceeded;
	// below the cap the item returns to pending.
	RecordFailure(ctx context.Context, id string, cause string) (models.QueueItem, error)

	// MarkFailed parks the item as failed immediately, bypassing the
	// attempt cap (non-retryable validation rejections).
	MarkFailed(ctx context.Context, id string, cause string) error

	// RetryFailed resets all failed items back to pending without
	// touching their attempt counters. Returns the number of items reset.
	RetryFailed(ctx context.Context) (int, error)

	// ResetInFlight returns any in_flight leftovers to pending. Called
	// once at store open; a crash between send and ack must leave the
	// item re-sendable.
	ResetInFlight(ctx context.Context) (int, error)

	// DeleteForEntity discards all items for one entity (remoteWins).
	DeleteForEntity(ctx context.Context, key models.EntityKey) error

	// Clear empties the whole queue. Explicit user escape hatch only.
	Clear(ctx context.Context) error

	// CountByStatus returns item counts grouped by status.
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// EntityRepository stores the local copy of the dataset, tombstones
// included.
type EntityRepository interface {
	Upsert(ctx context.Context, entity models.Entity) error
	Get(ctx context.Context, key models.EntityKey) (models.Entity, error)

	// All returns every row including tombstones, the backup capture set.
	All(ctx context.Context) ([]models.Entity, error)

	// ApplyRemote overwrites the local copy with a server delta and
	// clears the dirty marker. A deleted delta removes the row: the
	// server already knows about the deletion, so no tombstone is needed.
	ApplyRemote(ctx context.Context, change models.RemoteChange) error

	// SoftDelete tombstones an entity; physical removal is cleanup's job.
	SoftDelete(ctx context.Context, key models.EntityKey, at time.Time) error

	// ClearDirty marks the entity as confirmed at the given server version.
	ClearDirty(ctx context.Context, key models.EntityKey, version int64) error

	// TombstonesOlderThan lists tombstones whose deletion timestamp is
	// before the cutoff.
	TombstonesOlderThan(ctx context.Context, cutoff time.Time) ([]models.Entity, error)

	// Purge physically removes one row.
	Purge(ctx context.Context, key models.EntityKey) error

	// CountsByType counts live (non-tombstoned) rows per entity type.
	CountsByType(ctx context.Context) (map[string]int, error)

	// ReplaceAll atomically swaps the whole dataset (restore, overwrite
	// mode).
	ReplaceAll(ctx context.Context, entities []models.Entity) error

	// UpsertBatch applies entities as upserts without deleting rows absent
	// from the batch (restore, merge mode).
	UpsertBatch(ctx context.Context, entities []models.Entity) error
}

// ConflictRepository stores detected divergences.
type ConflictRepository interface {
	Create(ctx context.Context, conflict models.SyncConflict) error
	Get(ctx context.Context, id string) (models.SyncConflict, error)
	Unresolved(ctx context.Context) ([]models.SyncConflict, error)
	MarkResolved(ctx context.Context, id string, resolution models.Resolution) error
	HasUnresolvedForEntity(ctx context.Context, key models.EntityKey) (bool, error)
	CountUnresolved(ctx context.Context) (int, error)

	// CountResolvedOlderThan / PurgeResolvedOlderThan back the cleanup
	// preview and purge for resolved conflict rows.
	CountResolvedOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	PurgeResolvedOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// HistoryRepository stores append-only sync records.
type HistoryRepository interface {
	Append(ctx context.Context, record models.SyncRecord) error

	// Close finalizes an open record. Closed records are never mutated
	// again.
	Close(ctx context.Context, id string, status string, finishedAt time.Time, itemsSynced int, cause *string) error

	List(ctx context.Context, limit int) ([]models.SyncRecord, error)

	// TotalItemsSynced sums items_synced over successful records.
	TotalItemsSynced(ctx context.Context) (int, error)

	CountOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// SettingsRepository is the key/value store for engine settings.
type SettingsRepository interface {
	LoadSyncSettings(ctx context.Context) (models.SyncSettings, bool, error)
	SaveSyncSettings(ctx context.Context, s models.SyncSettings) error

	LoadCleanupSettings(ctx context.Context) (models.CleanupSettings, bool, error)
	SaveCleanupSettings(ctx context.Context, s models.CleanupSettings) error

	// DeviceID returns the stable device identifier, generating and
	// persisting one on first call.
	DeviceID(ctx context.Context) (string, error)
}

// BackupStore persists immutable snapshot artifacts plus an index of their
// metadata.
type BackupStore interface {
	// Write persists the archive and its metadata atomically: either the
	// snapshot is fully written and indexed, or nothing is added.
	Write(ctx context.Context, meta models.BackupData, archive models.BackupArchive) error

	// List returns all backups ordered newest-first.
	List(ctx context.Context) ([]models.BackupData, error)

	Read(ctx context.Context, id string) (models.BackupArchive, error)

	// Delete removes a snapshot; returns ErrBackupNotFound for unknown ids.
	Delete(ctx context.Context, id string) error
}

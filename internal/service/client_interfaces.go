// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the sync engine: the offline mutation queue,
// conflict resolution, backup and cleanup services, and the orchestrator
// state machine that sequences them.
//
// All services receive their dependencies at construction; there is no
// ambient global state. The queue, conflict list and backup list are owned
// exclusively by their services and exposed to the orchestrator and to UI
// observers only through the operations defined here.
package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-ledger-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_service_mock.go -package=mock

// MutationQueue is the durable offline queue of local mutations awaiting
// upload.
type MutationQueue interface {
	// Enqueue records one local write: the entity row is updated as local
	// tentative state (dirty) and a queue item is appended. Always
	// succeeds locally; no network dependency.
	Enqueue(ctx context.Context, mutation models.Mutation) error

	// ProcessQueue drains pending items in insertion order per entity,
	// sending each to the remote endpoint. A failed item does not abort
	// the rest of the drain, but it does block later items of the same
	// entity so per-entity ordering is never violated.
	ProcessQueue(ctx context.Context, progress func(done, total int)) (DrainResult, error)

	// RetryFailedItems resets all failed items back to pending (attempt
	// counters preserved) and returns the count retried.
	RetryFailedItems(ctx context.Context) (int, error)

	// ClearQueue empties the queue. Explicit user escape hatch only,
	// never called automatically.
	ClearQueue(ctx context.Context) error

	// Stats aggregates queue counters plus the lifetime synced total.
	Stats(ctx context.Context) (models.SyncStats, error)
}

// DrainResult summarizes one ProcessQueue pass.
type DrainResult struct {
	// Sent counts items acknowledged by the server and removed.
	Sent int
	// Failed counts items that recorded a failure during this drain.
	Failed int
	// Conflicts counts version conflicts recorded during this drain.
	Conflicts int
	// Skipped counts items held back because an earlier item of the same
	// entity failed.
	Skipped int
}

// ConflictResolver detects divergences during a sync pass and applies
// resolution policies.
type ConflictResolver interface {
	// ApplyRemoteChanges folds pulled deltas into the local dataset.
	// A delta touching an entity with unacknowledged local mutations is
	// compared payload-wise: identical payloads converge silently,
	// diverging payloads produce an unresolved conflict and leave the
	// local copy untouched.
	ApplyRemoteChanges(ctx context.Context, changes []models.RemoteChange) (applied int, conflicts int, err error)

	// RecordPushConflict records a version conflict reported by the
	// server for an uploaded item. Identical payloads converge silently.
	RecordPushConflict(ctx context.Context, item models.QueueItem, pushConflict models.PushConflict) (recorded bool, err error)

	// ResolveConflict applies the chosen policy and marks the conflict
	// resolved. Idempotent: re-resolving an already-resolved conflict is
	// a no-op.
	ResolveConflict(ctx context.Context, conflictID string, resolution models.Resolution) error

	// ResolveAllConflicts applies one policy uniformly to the conflicts
	// unresolved at call time; conflicts created later are unaffected.
	// Returns the number of conflicts resolved.
	ResolveAllConflicts(ctx context.Context, resolution models.Resolution) (int, error)

	// Unresolved lists currently-unresolved conflicts, oldest first.
	Unresolved(ctx context.Context) ([]models.SyncConflict, error)

	// CountUnresolved returns the number of unresolved conflicts.
	CountUnresolved(ctx context.Context) (int, error)
}

// BackupManager creates, lists, restores and deletes immutable dataset
// snapshots. Mutual exclusion with an active sync is the orchestrator's
// responsibility; the manager itself is purely local.
type BackupManager interface {
	// CreateBackup captures an atomic snapshot of the local dataset.
	// Either the full snapshot is persisted and listed, or creation
	// fails and nothing is added.
	CreateBackup(ctx context.Context, name string, backupType int) (models.BackupData, error)

	// ListBackups returns all snapshots newest-first.
	ListBackups(ctx context.Context) ([]models.BackupData, error)

	// RestoreBackup applies a snapshot. merge=false replaces the local
	// dataset; merge=true upserts snapshot entities without deleting
	// rows absent from the snapshot. Never triggers a network sync.
	RestoreBackup(ctx context.Context, id string, merge bool) error

	// DeleteBackup removes a snapshot; unknown ids surface an error.
	DeleteBackup(ctx context.Context, id string) error
}

// CleanupService reclaims space held by tombstones and aged history.
type CleanupService interface {
	// GetCleanupPreview computes, without mutating anything, what a purge
	// with the current settings would remove.
	GetCleanupPreview(ctx context.Context) (models.CleanupPreview, error)

	// PerformCleanup physically deletes the eligible set. A failure never
	// escalates to sync failure and is safe to retry next cycle.
	PerformCleanup(ctx context.Context) (models.CleanupResult, error)

	Settings(ctx context.Context) (models.CleanupSettings, error)
	UpdateSettings(ctx context.Context, settings models.CleanupSettings) error
}

// ConnectivityMonitor reports the network condition the engine runs under.
// Implementations push transitions to the registered callback.
type ConnectivityMonitor interface {
	IsOnline() bool
	IsWifi() bool

	// OnChange registers the callback invoked on every observed
	// transition. A single callback is supported; the orchestrator owns
	// the subscription.
	OnChange(fn func(online, wifi bool))
}

// Orchestrator is the top-level state machine sequencing queue drain,
// remote exchange, conflict handling and cleanup.
type Orchestrator interface {
	// Sync runs one full pass. Refused with ErrSyncUnavailable when
	// CanSync is false.
	Sync(ctx context.Context) error

	// CanSync reports whether a sync pass may start right now:
	// online, not restricted by wifiOnly, and no pass already running.
	CanSync() bool

	// State returns the current process-wide sync state snapshot.
	State() models.SyncState

	// Subscribe registers an observer of state transitions. The returned
	// channel receives every published state until Unsubscribe.
	Subscribe() <-chan models.SyncState
	Unsubscribe(ch <-chan models.SyncState)

	Settings() models.SyncSettings
	UpdateSettings(ctx context.Context, settings models.SyncSettings) error

	// CreateBackup/RestoreBackup delegate to the backup manager after
	// verifying no sync pass is running.
	CreateBackup(ctx context.Context, name string) (models.BackupData, error)
	RestoreBackup(ctx context.Context, id string, merge bool) error

	// History lists recent sync records, newest first.
	History(ctx context.Context, limit int) ([]models.SyncRecord, error)
}

// SyncJob runs background sync triggers (interval ticks, reconnect).
type SyncJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}

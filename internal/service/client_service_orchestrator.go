// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-ledger-sync/internal/adapter"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type orchestrator struct {
	queue    MutationQueue
	resolver ConflictResolver
	backups  BackupManager
	cleanup  CleanupService
	remote   adapter.RemoteEndpoint
	history  store.HistoryRepository
	store    store.SettingsRepository
	monitor  ConnectivityMonitor
	logger   *logger.Logger

	mu          sync.Mutex
	syncing     bool
	settings    models.SyncSettings
	state       models.SyncState
	subscribers map[<-chan models.SyncState]chan models.SyncState
}

// NewOrchestrator wires the engine state machine. Stored sync settings are
// loaded if present, otherwise fallback applies. The monitor callback is
// registered here: a reconnect triggers an automatic pass when the
// frequency is on_connect.
func NewOrchestrator(
	ctx context.Context,
	queue MutationQueue,
	resolver ConflictResolver,
	backups BackupManager,
	cleanup CleanupService,
	remote adapter.RemoteEndpoint,
	history store.HistoryRepository,
	settingsStore store.SettingsRepository,
	monitor ConnectivityMonitor,
	fallback models.SyncSettings,
	log *logger.Logger,
) (Orchestrator, error) {
	settings, found, err := settingsStore.LoadSyncSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		settings = fallback
	}

	o := &orchestrator{
		queue:       queue,
		resolver:    resolver,
		backups:     backups,
		cleanup:     cleanup,
		remote:      remote,
		history:     history,
		store:       settingsStore,
		monitor:     monitor,
		settings:    settings,
		state:       models.SyncState{Status: models.StatusIdle},
		subscribers: make(map[<-chan models.SyncState]chan models.SyncState),
		logger:      log,
	}

	monitor.OnChange(o.onConnectivityChange)
	return o, nil
}

func (o *orchestrator) onConnectivityChange(online, _ bool) {
	if !online {
		o.mu.Lock()
		if !o.syncing {
			o.publishLocked(models.SyncState{Status: models.StatusOffline, Stats: o.state.Stats})
		}
		o.mu.Unlock()
		return
	}

	o.mu.Lock()
	trigger := o.settings.Enabled && o.settings.Frequency == models.FrequencyOnConnect && !o.syncing
	if o.state.Status == models.StatusOffline {
		o.publishLocked(models.SyncState{Status: models.StatusIdle, Stats: o.state.Stats})
	}
	o.mu.Unlock()

	if trigger {
		go func() {
			ctx := o.logger.WithContext(context.Background())
			if err := o.Sync(ctx); err != nil {
				o.logger.Warn().Err(err).
					Str("func", "orchestrator.onConnectivityChange").
					Msg("reconnect sync failed")
			}
		}()
	}
}

// CanSync reports whether a pass may start: online, not blocked by the
// wifiOnly restriction and no pass currently running.
func (o *orchestrator) CanSync() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canSyncLocked()
}

func (o *orchestrator) canSyncLocked() bool {
	if o.syncing {
		return false
	}
	if !o.monitor.IsOnline() {
		return false
	}
	if o.settings.WifiOnly && !o.monitor.IsWifi() {
		return false
	}
	return true
}

// Sync runs one full pass: drain the queue, pull remote deltas, reconcile,
// advance the checkpoint and publish the outcome. Exactly one pass runs at
// a time.
func (o *orchestrator) Sync(ctx context.Context) error {
	log := logger.FromContext(ctx)

	o.mu.Lock()
	if o.syncing {
		o.mu.Unlock()
		return ErrSyncInProgress
	}
	if !o.canSyncLocked() {
		o.mu.Unlock()
		return ErrSyncUnavailable
	}
	o.syncing = true
	progress := 0.0
	o.publishLocked(models.SyncState{
		Status:   models.StatusSyncing,
		Progress: &progress,
		Stats:    o.state.Stats,
	})
	o.mu.Unlock()

	record := models.SyncRecord{
		ID:        uuid.NewString(),
		Direction: models.DirectionBidirectional,
		Status:    models.RecordInProgress,
		StartedAt: time.Now().UTC(),
	}
	if err := o.history.Append(ctx, record); err != nil {
		o.finish(ctx, models.SyncState{Status: models.StatusFailed}, nil)
		return err
	}

	itemsSynced, unresolved, err := o.runPass(ctx)
	if err != nil {
		status := models.StatusFailed
		if errors.Is(err, adapter.ErrConnectivity) {
			status = models.StatusOffline
		}
		cause := err.Error()
		o.closeRecord(ctx, record.ID, models.RecordFailed, itemsSynced, &cause)
		o.finish(ctx, models.SyncState{Status: status, ErrorMessage: &cause}, nil)
		log.Warn().Err(err).
			Str("func", "orchestrator.Sync").
			Str("record_id", record.ID).
			Msg("sync pass aborted")
		return err
	}

	finalStatus := models.StatusSuccess
	recordStatus := models.RecordSuccess
	if unresolved > 0 {
		finalStatus = models.StatusHasConflicts
		recordStatus = models.RecordHasConflicts
	}
	o.closeRecord(ctx, record.ID, recordStatus, itemsSynced, nil)

	var after func(context.Context)
	if finalStatus == models.StatusSuccess {
		after = o.autoCleanup
	}
	o.finish(ctx, models.SyncState{Status: finalStatus}, after)

	log.Info().
		Str("func", "orchestrator.Sync").
		Str("record_id", record.ID).
		Str("status", finalStatus).
		Int("items_synced", itemsSynced).
		Int("unresolved_conflicts", unresolved).
		Msg("sync pass finished")
	return nil
}

// runPass executes the upload and download halves. Progress publication
// maps the drain onto [0, 0.5] and the pull onto [0.5, 1].
func (o *orchestrator) runPass(ctx context.Context) (itemsSynced, unresolved int, err error) {
	drain, err := o.queue.ProcessQueue(ctx, func(done, total int) {
		if total == 0 {
			o.setProgress(0.5)
			return
		}
		o.setProgress(0.5 * float64(done) / float64(total))
	})
	if err != nil {
		return drain.Sent, 0, err
	}
	itemsSynced = drain.Sent

	deviceID, err := o.store.DeviceID(ctx)
	if err != nil {
		return itemsSynced, 0, err
	}

	o.mu.Lock()
	since := o.settings.LastSyncTime
	o.mu.Unlock()

	var checkpoint time.Time
	for {
		resp, pullErr := o.remote.Pull(ctx, models.PullRequest{DeviceID: deviceID, Since: since})
		if pullErr != nil {
			return itemsSynced, 0, pullErr
		}

		applied, _, applyErr := o.resolver.ApplyRemoteChanges(ctx, resp.Changes)
		if applyErr != nil {
			return itemsSynced, 0, applyErr
		}
		itemsSynced += applied

		checkpoint = resp.NewCheckpoint
		since = &checkpoint
		o.setProgress(0.75)
		if !resp.HasMore {
			break
		}
	}
	o.setProgress(1)

	unresolved, err = o.resolver.CountUnresolved(ctx)
	if err != nil {
		return itemsSynced, unresolved, err
	}

	// The checkpoint advances only when nothing is frozen behind a
	// conflict; skipped deltas must be offered again on the next pass.
	if unresolved == 0 && !checkpoint.IsZero() {
		o.mu.Lock()
		o.settings.LastSyncTime = &checkpoint
		settings := o.settings
		o.mu.Unlock()
		if err := o.store.SaveSyncSettings(ctx, settings); err != nil {
			return itemsSynced, unresolved, fmt.Errorf("failed to commit checkpoint: %w", err)
		}
	}
	return itemsSynced, unresolved, nil
}

func (o *orchestrator) setProgress(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Status != models.StatusSyncing {
		return
	}
	next := o.state
	next.Progress = &v
	o.publishLocked(next)
}

// finish publishes the terminal state of a pass with refreshed stats and
// releases the syncing flag. after, if set, runs in the background once the
// state is published.
func (o *orchestrator) finish(ctx context.Context, state models.SyncState, after func(context.Context)) {
	if stats, err := o.queue.Stats(ctx); err == nil {
		state.Stats = stats
	} else {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "orchestrator.finish").
			Msg("failed to refresh queue stats")
	}

	o.mu.Lock()
	o.syncing = false
	o.publishLocked(state)
	o.mu.Unlock()

	if after != nil {
		go after(o.logger.WithContext(context.Background()))
	}
}

func (o *orchestrator) autoCleanup(ctx context.Context) {
	settings, err := o.cleanup.Settings(ctx)
	if err != nil || !settings.AutoCleanup {
		return
	}
	if _, err := o.cleanup.PerformCleanup(ctx); err != nil {
		// Cleanup failures never degrade the sync outcome; the next
		// successful pass retries.
		o.logger.Warn().Err(err).
			Str("func", "orchestrator.autoCleanup").
			Msg("automatic cleanup failed")
	}
}

func (o *orchestrator) closeRecord(ctx context.Context, id, status string, itemsSynced int, cause *string) {
	finishedAt := time.Now().UTC()
	if err := o.history.Close(ctx, id, status, finishedAt, itemsSynced, cause); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("func", "orchestrator.closeRecord").
			Str("record_id", id).
			Msg("failed to close sync record")
	}
}

func (o *orchestrator) State() models.SyncState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe returns a buffered channel receiving every published state.
// Slow consumers lose intermediate states, never the subscription.
func (o *orchestrator) Subscribe() <-chan models.SyncState {
	ch := make(chan models.SyncState, 16)
	o.mu.Lock()
	o.subscribers[ch] = ch
	o.mu.Unlock()
	return ch
}

func (o *orchestrator) Unsubscribe(ch <-chan models.SyncState) {
	o.mu.Lock()
	if sub, ok := o.subscribers[ch]; ok {
		delete(o.subscribers, ch)
		close(sub)
	}
	o.mu.Unlock()
}

func (o *orchestrator) publishLocked(state models.SyncState) {
	o.state = state
	for _, sub := range o.subscribers {
		select {
		case sub <- state:
		default:
		}
	}
}

func (o *orchestrator) Settings() models.SyncSettings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}

// UpdateSettings persists user-tunable sync settings. The checkpoint
// watermark is engine-owned and survives any settings update.
func (o *orchestrator) UpdateSettings(ctx context.Context, settings models.SyncSettings) error {
	switch settings.Frequency {
	case models.FrequencyManual, models.FrequencyOnConnect:
	case models.FrequencyInterval:
		if settings.Interval <= 0 {
			return fmt.Errorf("interval frequency requires a positive interval, got %s", settings.Interval)
		}
	default:
		return fmt.Errorf("unknown sync frequency %q", settings.Frequency)
	}

	o.mu.Lock()
	settings.LastSyncTime = o.settings.LastSyncTime
	o.settings = settings
	o.mu.Unlock()

	return o.store.SaveSyncSettings(ctx, settings)
}

// CreateBackup delegates to the backup manager after verifying no sync pass
// is mutating the dataset.
func (o *orchestrator) CreateBackup(ctx context.Context, name string) (models.BackupData, error) {
	o.mu.Lock()
	if o.syncing {
		o.mu.Unlock()
		return models.BackupData{}, ErrBackupBusy
	}
	o.mu.Unlock()

	return o.backups.CreateBackup(ctx, name, models.BackupManual)
}

func (o *orchestrator) RestoreBackup(ctx context.Context, id string, merge bool) error {
	o.mu.Lock()
	if o.syncing {
		o.mu.Unlock()
		return ErrBackupBusy
	}
	o.mu.Unlock()

	return o.backups.RestoreBackup(ctx, id, merge)
}

func (o *orchestrator) History(ctx context.Context, limit int) ([]models.SyncRecord, error) {
	return o.history.List(ctx, limit)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

// ─────────────────────────────────────────────
// In-memory repository fakes
// ─────────────────────────────────────────────
//
// The fakes mirror the documented semantics of the SQLite repositories so
// service tests exercise real state transitions instead of expectation
// scripts. They are mutex-guarded because the orchestrator runs cleanup in
// a background goroutine. Error injection fields let a test fail one
// operation.

type memQueue struct {
	mu    sync.Mutex
	items []models.QueueItem

	enqueueErr error
	pendingErr error
}

// byID requires mu to be held.
func (q *memQueue) byID(id string) *models.QueueItem {
	for i := range q.items {
		if q.items[i].ID == id {
			return &q.items[i]
		}
	}
	return nil
}

func (q *memQueue) Enqueue(_ context.Context, item models.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.items = append(q.items, item)
	return nil
}

func (q *memQueue) Pending(_ context.Context) ([]models.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pendingErr != nil {
		return nil, q.pendingErr
	}
	var pending []models.QueueItem
	for _, item := range q.items {
		if item.Status == models.QueuePending {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

func (q *memQueue) PendingForEntity(_ context.Context, key models.EntityKey) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (q *memQueue) MarkInFlight(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.byID(id)
	if item == nil {
		return store.ErrQueueItemNotFound
	}
	item.Status = models.QueueInFlight
	return nil
}

func (q *memQueue) Ack(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}
	return store.ErrQueueItemNotFound
}

func (q *memQueue) RecordFailure(_ context.Context, id string, cause string) (models.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.byID(id)
	if item == nil {
		return models.QueueItem{}, store.ErrQueueItemNotFound
	}
	item.Attempts++
	item.LastError = &cause
	item.Status = models.QueuePending
	if item.Attempts >= models.MaxQueueAttempts {
		item.Status = models.QueueFailed
	}
	return *item, nil
}

func (q *memQueue) MarkFailed(_ context.Context, id string, cause string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.byID(id)
	if item == nil {
		return store.ErrQueueItemNotFound
	}
	item.Attempts++
	item.LastError = &cause
	item.Status = models.QueueFailed
	return nil
}

func (q *memQueue) RetryFailed(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int
	for i := range q.items {
		if q.items[i].Status == models.QueueFailed {
			q.items[i].Status = models.QueuePending
			q.items[i].LastError = nil
			n++
		}
	}
	return n, nil
}

func (q *memQueue) ResetInFlight(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int
	for i := range q.items {
		if q.items[i].Status == models.QueueInFlight {
			q.items[i].Status = models.QueuePending
			n++
		}
	}
	return n, nil
}

func (q *memQueue) DeleteForEntity(_ context.Context, key models.EntityKey) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, item := range q.items {
		if item.Key() != key {
			kept = append(kept, item)
		}
	}
	q.items = kept
	return nil
}

func (q *memQueue) Clear(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	return nil
}

func (q *memQueue) CountByStatus(_ context.Context) (map[string]int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := make(map[string]int)
	for _, item := range q.items {
		counts[item.Status]++
	}
	return counts, nil
}

type memEntities struct {
	mu   sync.Mutex
	rows map[models.EntityKey]models.Entity

	upsertErr error
}

func newMemEntities() *memEntities {
	return &memEntities{rows: make(map[models.EntityKey]models.Entity)}
}

func (e *memEntities) Upsert(_ context.Context, entity models.Entity) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.upsertErr != nil {
		return e.upsertErr
	}
	e.rows[entity.Key()] = entity
	return nil
}

func (e *memEntities) Get(_ context.Context, key models.EntityKey) (models.Entity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entity, ok := e.rows[key]
	if !ok {
		return models.Entity{}, store.ErrEntityNotFound
	}
	return entity, nil
}

func (e *memEntities) All(_ context.Context) ([]models.Entity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entities := make([]models.Entity, 0, len(e.rows))
	for _, entity := range e.rows {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].EntityType != entities[j].EntityType {
			return entities[i].EntityType < entities[j].EntityType
		}
		return entities[i].EntityID < entities[j].EntityID
	})
	return entities, nil
}

func (e *memEntities) ApplyRemote(_ context.Context, change models.RemoteChange) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := models.EntityKey{EntityType: change.EntityType, EntityID: change.EntityID}
	if change.Deleted {
		delete(e.rows, key)
		return nil
	}
	e.rows[key] = models.Entity{
		EntityType: change.EntityType,
		EntityID:   change.EntityID,
		Payload:    change.Payload,
		Version:    change.Version,
		Dirty:      false,
		UpdatedAt:  change.UpdatedAt,
	}
	return nil
}

func (e *memEntities) SoftDelete(_ context.Context, key models.EntityKey, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	entity, ok := e.rows[key]
	if !ok {
		return store.ErrEntityNotFound
	}
	entity.Deleted = true
	entity.DeletedAt = &at
	entity.Dirty = true
	entity.UpdatedAt = at
	e.rows[key] = entity
	return nil
}

func (e *memEntities) ClearDirty(_ context.Context, key models.EntityKey, version int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	entity, ok := e.rows[key]
	if !ok {
		return store.ErrEntityNotFound
	}
	entity.Dirty = false
	entity.Version = version
	e.rows[key] = entity
	return nil
}

func (e *memEntities) TombstonesOlderThan(_ context.Context, cutoff time.Time) ([]models.Entity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var tombstones []models.Entity
	for _, entity := range e.rows {
		if entity.Deleted && entity.DeletedAt != nil && entity.DeletedAt.Before(cutoff) {
			tombstones = append(tombstones, entity)
		}
	}
	sort.Slice(tombstones, func(i, j int) bool {
		return tombstones[i].EntityID < tombstones[j].EntityID
	})
	return tombstones, nil
}

func (e *memEntities) Purge(_ context.Context, key models.EntityKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rows[key]; !ok {
		return store.ErrEntityNotFound
	}
	delete(e.rows, key)
	return nil
}

func (e *memEntities) CountsByType(_ context.Context) (map[string]int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	counts := make(map[string]int)
	for _, entity := range e.rows {
		if entity.Deleted {
			continue
		}
		counts[entity.EntityType]++
	}
	return counts, nil
}

func (e *memEntities) ReplaceAll(_ context.Context, entities []models.Entity) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = make(map[models.EntityKey]models.Entity, len(entities))
	for _, entity := range entities {
		e.rows[entity.Key()] = entity
	}
	return nil
}

func (e *memEntities) UpsertBatch(_ context.Context, entities []models.Entity) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, entity := range entities {
		e.rows[entity.Key()] = entity
	}
	return nil
}

type memConflicts struct {
	mu   sync.Mutex
	list []models.SyncConflict

	createErr       error
	markResolvedErr error
}

func (c *memConflicts) Create(_ context.Context, conflict models.SyncConflict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return c.createErr
	}
	c.list = append(c.list, conflict)
	return nil
}

func (c *memConflicts) Get(_ context.Context, id string) (models.SyncConflict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conflict := range c.list {
		if conflict.ID == id {
			return conflict, nil
		}
	}
	return models.SyncConflict{}, store.ErrConflictNotFound
}

func (c *memConflicts) Unresolved(_ context.Context) ([]models.SyncConflict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var unresolved []models.SyncConflict
	for _, conflict := range c.list {
		if !conflict.IsResolved {
			unresolved = append(unresolved, conflict)
		}
	}
	return unresolved, nil
}

func (c *memConflicts) MarkResolved(_ context.Context, id string, resolution models.Resolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.markResolvedErr != nil {
		return c.markResolvedErr
	}
	for i := range c.list {
		if c.list[i].ID == id {
			res := resolution
			c.list[i].Resolution = &res
			c.list[i].IsResolved = true
			return nil
		}
	}
	return store.ErrConflictNotFound
}

func (c *memConflicts) HasUnresolvedForEntity(_ context.Context, key models.EntityKey) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conflict := range c.list {
		if !conflict.IsResolved && conflict.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (c *memConflicts) CountUnresolved(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, conflict := range c.list {
		if !conflict.IsResolved {
			n++
		}
	}
	return n, nil
}

func (c *memConflicts) CountResolvedOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, conflict := range c.list {
		if conflict.IsResolved && conflict.DetectedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (c *memConflicts) PurgeResolvedOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	kept := c.list[:0]
	for _, conflict := range c.list {
		if conflict.IsResolved && conflict.DetectedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, conflict)
	}
	c.list = kept
	return n, nil
}

type memHistory struct {
	mu      sync.Mutex
	records []models.SyncRecord
}

func (h *memHistory) Append(_ context.Context, record models.SyncRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return nil
}

func (h *memHistory) Close(_ context.Context, id string, status string, finishedAt time.Time, itemsSynced int, cause *string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.records {
		if h.records[i].ID == id && h.records[i].FinishedAt == nil {
			h.records[i].Status = status
			h.records[i].FinishedAt = &finishedAt
			h.records[i].ItemsSynced = itemsSynced
			h.records[i].Error = cause
			return nil
		}
	}
	return nil
}

func (h *memHistory) List(_ context.Context, limit int) ([]models.SyncRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	records := make([]models.SyncRecord, len(h.records))
	copy(records, h.records)
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (h *memHistory) TotalItemsSynced(_ context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var total int
	for _, record := range h.records {
		if record.Status == models.RecordSuccess {
			total += record.ItemsSynced
		}
	}
	return total, nil
}

func (h *memHistory) CountOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n int
	for _, record := range h.records {
		if record.FinishedAt != nil && record.FinishedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (h *memHistory) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n int
	kept := h.records[:0]
	for _, record := range h.records {
		if record.FinishedAt != nil && record.FinishedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, record)
	}
	h.records = kept
	return n, nil
}

type memSettings struct {
	mu      sync.Mutex
	sync    *models.SyncSettings
	cleanup *models.CleanupSettings

	saveSyncErr error
}

func (s *memSettings) LoadSyncSettings(_ context.Context) (models.SyncSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sync == nil {
		return models.SyncSettings{}, false, nil
	}
	return *s.sync, true, nil
}

func (s *memSettings) SaveSyncSettings(_ context.Context, settings models.SyncSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveSyncErr != nil {
		return s.saveSyncErr
	}
	s.sync = &settings
	return nil
}

func (s *memSettings) savedSync() *models.SyncSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync
}

func (s *memSettings) LoadCleanupSettings(_ context.Context) (models.CleanupSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleanup == nil {
		return models.CleanupSettings{}, false, nil
	}
	return *s.cleanup, true, nil
}

func (s *memSettings) SaveCleanupSettings(_ context.Context, settings models.CleanupSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanup = &settings
	return nil
}

func (s *memSettings) DeviceID(_ context.Context) (string, error) {
	return "device-test", nil
}

type memBackups struct {
	mu       sync.Mutex
	metas    []models.BackupData
	archives map[string]models.BackupArchive

	writeErr error
}

func newMemBackups() *memBackups {
	return &memBackups{archives: make(map[string]models.BackupArchive)}
}

func (b *memBackups) Write(_ context.Context, meta models.BackupData, archive models.BackupArchive) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.metas = append(b.metas, meta)
	b.archives[meta.ID] = archive
	return nil
}

func (b *memBackups) List(_ context.Context) ([]models.BackupData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	metas := make([]models.BackupData, len(b.metas))
	copy(metas, b.metas)
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

func (b *memBackups) Read(_ context.Context, id string) (models.BackupArchive, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	archive, ok := b.archives[id]
	if !ok {
		return models.BackupArchive{}, store.ErrBackupNotFound
	}
	return archive, nil
}

func (b *memBackups) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.archives[id]; !ok {
		return store.ErrBackupNotFound
	}
	delete(b.archives, id)
	kept := b.metas[:0]
	for _, meta := range b.metas {
		if meta.ID != id {
			kept = append(kept, meta)
		}
	}
	b.metas = kept
	return nil
}

// fakeRemote is a func-field RemoteEndpoint stub for tests that need
// call-dependent behavior across repeated pushes and pulls.
type fakeRemote struct {
	token string

	pushFn   func(ctx context.Context, req models.PushRequest) (models.PushResponse, error)
	pullFn   func(ctx context.Context, req models.PullRequest) (models.PullResponse, error)
	statusFn func(ctx context.Context) (models.StatusResponse, error)
}

func (f *fakeRemote) SetToken(token string) { f.token = token }
func (f *fakeRemote) Token() string         { return f.token }

func (f *fakeRemote) Register(_ context.Context, _ models.User) (models.Token, error) {
	return models.Token{}, nil
}

func (f *fakeRemote) Login(_ context.Context, _ models.User) (models.Token, error) {
	return models.Token{}, nil
}

func (f *fakeRemote) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	if f.pushFn == nil {
		return models.PushResponse{}, nil
	}
	return f.pushFn(ctx, req)
}

func (f *fakeRemote) Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	if f.pullFn == nil {
		return models.PullResponse{NewCheckpoint: time.Now().UTC()}, nil
	}
	return f.pullFn(ctx, req)
}

func (f *fakeRemote) Status(ctx context.Context) (models.StatusResponse, error) {
	if f.statusFn == nil {
		return models.StatusResponse{ServerTime: time.Now().UTC()}, nil
	}
	return f.statusFn(ctx)
}

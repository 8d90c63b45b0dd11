// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-ledger-sync/internal/adapter"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type queueFixture struct {
	queue     *memQueue
	entities  *memEntities
	conflicts *memConflicts
	history   *memHistory
	remote    *fakeRemote
	svc       MutationQueue
}

func newQueueFixture() *queueFixture {
	f := &queueFixture{
		queue:     &memQueue{},
		entities:  newMemEntities(),
		conflicts: &memConflicts{},
		history:   &memHistory{},
		remote:    &fakeRemote{},
	}
	l := logger.Nop()
	resolver := NewConflictResolver(f.conflicts, f.entities, f.queue, l)
	f.svc = NewMutationQueue(f.queue, f.entities, &memSettings{}, f.history, f.remote, resolver, l)
	return f
}

// acceptAll acknowledges every uploaded mutation.
func acceptAll(f *queueFixture) {
	f.remote.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		var resp models.PushResponse
		for _, m := range req.Mutations {
			resp.Accepted = append(resp.Accepted, m.MutationID)
		}
		return resp, nil
	}
}

func TestMutationQueue_Enqueue_AppliesTentativeState(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	key := models.EntityKey{EntityType: models.EntityTransaction, EntityID: "tx-1"}
	require.NoError(t, f.entities.Upsert(ctx, models.Entity{
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Payload:    json.RawMessage(`{"amount":10}`),
		Version:    3,
	}))

	err := f.svc.Enqueue(ctx, models.Mutation{
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Operation:  models.OpUpdate,
		Payload:    json.RawMessage(`{"amount":25}`),
	})
	require.NoError(t, err)

	entity, err := f.entities.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, entity.Dirty, "local write must be tentative until acked")
	assert.Equal(t, int64(3), entity.Version, "confirmed base version must survive the local write")
	assert.JSONEq(t, `{"amount":25}`, string(entity.Payload))

	require.Len(t, f.queue.items, 1)
	item := f.queue.items[0]
	assert.Equal(t, models.QueuePending, item.Status)
	assert.Equal(t, models.OpUpdate, item.Operation)
	assert.NotEmpty(t, item.ID)
}

func TestMutationQueue_Enqueue_DeleteTombstones(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	key := models.EntityKey{EntityType: models.EntityAccount, EntityID: "acc-1"}
	require.NoError(t, f.entities.Upsert(ctx, models.Entity{
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Payload:    json.RawMessage(`{"name":"cash"}`),
		Version:    1,
	}))

	err := f.svc.Enqueue(ctx, models.Mutation{
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Operation:  models.OpDelete,
	})
	require.NoError(t, err)

	entity, err := f.entities.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, entity.Deleted, "delete must tombstone, not remove")
	assert.NotNil(t, entity.DeletedAt)
	assert.True(t, entity.Dirty)
}

func TestMutationQueue_Enqueue_RejectsInvalidMutations(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	tests := []struct {
		name     string
		mutation models.Mutation
	}{
		{
			name:     "missing entity id",
			mutation: models.Mutation{EntityType: models.EntityTransaction, Operation: models.OpCreate},
		},
		{
			name:     "missing entity type",
			mutation: models.Mutation{EntityID: "tx-1", Operation: models.OpCreate},
		},
		{
			name:     "unknown operation",
			mutation: models.Mutation{EntityType: models.EntityTransaction, EntityID: "tx-1", Operation: "rename"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.Enqueue(ctx, tt.mutation)
			require.Error(t, err)
			assert.Empty(t, f.queue.items, "invalid mutations must never reach the queue")
		})
	}
}

func TestMutationQueue_ProcessQueue_DrainsInOrderAndConfirms(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()
	acceptAll(f)

	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityAccount, EntityID: "acc-1",
		Operation: models.OpCreate, Payload: json.RawMessage(`{"name":"cash"}`),
	}))
	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Operation: models.OpCreate, Payload: json.RawMessage(`{"amount":10}`),
	}))

	var progressCalls []int
	result, err := f.svc.ProcessQueue(ctx, func(done, _ int) {
		progressCalls = append(progressCalls, done)
	})
	require.NoError(t, err)

	assert.Equal(t, DrainResult{Sent: 2}, result)
	assert.Empty(t, f.queue.items, "acked items must leave the queue")
	assert.Equal(t, []int{0, 1, 2}, progressCalls)

	acc, err := f.entities.Get(ctx, models.EntityKey{EntityType: models.EntityAccount, EntityID: "acc-1"})
	require.NoError(t, err)
	assert.False(t, acc.Dirty, "acked entity must be confirmed")
	assert.Equal(t, int64(1), acc.Version, "first ack confirms at server version base+1")
}

func TestMutationQueue_ProcessQueue_FailedItemBlocksSameEntity(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Operation: models.OpCreate, Payload: json.RawMessage(`{"amount":10}`),
	}))
	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Operation: models.OpUpdate, Payload: json.RawMessage(`{"amount":12}`),
	}))
	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityAccount, EntityID: "acc-1",
		Operation: models.OpCreate, Payload: json.RawMessage(`{"name":"cash"}`),
	}))

	f.remote.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		if req.Mutations[0].EntityType == models.EntityTransaction {
			return models.PushResponse{}, errors.New("insert deadlock")
		}
		return models.PushResponse{Accepted: []string{req.Mutations[0].MutationID}}, nil
	}

	result, err := f.svc.ProcessQueue(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, DrainResult{Sent: 1, Failed: 1, Skipped: 1}, result)

	first := f.queue.items[0]
	assert.Equal(t, models.QueuePending, first.Status, "failed item below the cap returns to pending")
	assert.Equal(t, 1, first.Attempts)
	require.NotNil(t, first.LastError)

	second := f.queue.items[1]
	assert.Equal(t, models.QueuePending, second.Status)
	assert.Zero(t, second.Attempts, "a skipped item must not burn an attempt")
}

func TestMutationQueue_ProcessQueue_ConnectivityLossAborts(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Operation: models.OpCreate, Payload: json.RawMessage(`{"amount":10}`),
	}))
	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityAccount, EntityID: "acc-1",
		Operation: models.OpCreate, Payload: json.RawMessage(`{"name":"cash"}`),
	}))

	f.remote.pushFn = func(_ context.Context, _ models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{}, adapter.ErrConnectivity
	}

	_, err := f.svc.ProcessQueue(ctx, nil)
	require.ErrorIs(t, err, adapter.ErrConnectivity)

	for _, item := range f.queue.items {
		assert.Equal(t, models.QueuePending, item.Status, "aborted drain must leave nothing in flight")
		assert.Zero(t, item.Attempts, "a connectivity loss is not an item failure")
	}
}

func TestMutationQueue_ProcessQueue_ValidationRejectionParksImmediately(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityBudget, EntityID: "b-1",
		Operation: models.OpCreate, Payload: json.RawMessage(`{"limit":-5}`),
	}))

	f.remote.pushFn = func(_ context.Context, _ models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{}, adapter.ErrValidation
	}

	result, err := f.svc.ProcessQueue(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, DrainResult{Failed: 1}, result)
	require.Len(t, f.queue.items, 1)
	assert.Equal(t, models.QueueFailed, f.queue.items[0].Status,
		"a rejection the server will repeat must not be retried automatically")
}

func TestMutationQueue_ProcessQueue_AttemptCapParksItem(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Operation: models.OpCreate, Payload: json.RawMessage(`{"amount":10}`),
	}))
	f.queue.items[0].Attempts = models.MaxQueueAttempts - 1

	f.remote.pushFn = func(_ context.Context, _ models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{}, errors.New("still broken")
	}

	result, err := f.svc.ProcessQueue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Failed: 1}, result)
	assert.Equal(t, models.QueueFailed, f.queue.items[0].Status)
	assert.Equal(t, models.MaxQueueAttempts, f.queue.items[0].Attempts)

	retried, err := f.svc.RetryFailedItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)
	assert.Equal(t, models.QueuePending, f.queue.items[0].Status)
	assert.Equal(t, models.MaxQueueAttempts, f.queue.items[0].Attempts,
		"explicit retry keeps the failure history")
}

func TestMutationQueue_ProcessQueue_VersionConflictFreezesEntity(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Operation: models.OpUpdate, Payload: json.RawMessage(`{"amount":10}`),
	}))

	f.remote.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{Conflicts: []models.PushConflict{{
			MutationID:    req.Mutations[0].MutationID,
			EntityType:    models.EntityTransaction,
			EntityID:      "tx-1",
			RemoteVersion: 7,
			RemotePayload: json.RawMessage(`{"amount":99}`),
		}}}, nil
	}

	result, err := f.svc.ProcessQueue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Conflicts: 1}, result)

	require.Len(t, f.conflicts.list, 1)
	conflict := f.conflicts.list[0]
	assert.False(t, conflict.IsResolved)
	assert.JSONEq(t, `{"amount":10}`, string(conflict.LocalVersion))
	assert.JSONEq(t, `{"amount":99}`, string(conflict.RemoteVersion))
	assert.Equal(t, int64(7), conflict.RemoteServerVersion)

	entity, err := f.entities.Get(ctx, models.EntityKey{EntityType: models.EntityTransaction, EntityID: "tx-1"})
	require.NoError(t, err)
	assert.True(t, entity.Dirty, "conflicted local copy must stay untouched until resolution")
	assert.JSONEq(t, `{"amount":10}`, string(entity.Payload))

	require.Len(t, f.queue.items, 1)
	assert.Equal(t, models.QueueFailed, f.queue.items[0].Status)
}

func TestMutationQueue_ProcessQueue_ConvergentConflictAcksSilently(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityTransaction, EntityID: "tx-1",
		Operation: models.OpUpdate, Payload: json.RawMessage(`{"amount":10}`),
	}))

	// The remote copy moved, but to identical content (key order differs).
	f.remote.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{Conflicts: []models.PushConflict{{
			MutationID:    req.Mutations[0].MutationID,
			EntityType:    models.EntityTransaction,
			EntityID:      "tx-1",
			RemoteVersion: 4,
			RemotePayload: json.RawMessage(` {"amount": 10} `),
		}}}, nil
	}

	result, err := f.svc.ProcessQueue(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, DrainResult{Sent: 1}, result)
	assert.Empty(t, f.conflicts.list, "identical content must not surface a conflict")
	assert.Empty(t, f.queue.items)

	entity, err := f.entities.Get(ctx, models.EntityKey{EntityType: models.EntityTransaction, EntityID: "tx-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), entity.Version, "converged entity adopts the server version")
	assert.False(t, entity.Dirty)
}

func TestMutationQueue_Stats(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	f.queue.items = []models.QueueItem{
		{ID: "1", Status: models.QueuePending},
		{ID: "2", Status: models.QueueInFlight},
		{ID: "3", Status: models.QueueFailed},
	}
	f.history.records = []models.SyncRecord{
		{ID: "r1", Status: models.RecordSuccess, ItemsSynced: 12},
		{ID: "r2", Status: models.RecordFailed, ItemsSynced: 5},
	}

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pending: 2, Failed: 1, Synced: 12, Queued: 3}, stats)
}

func TestMutationQueue_ClearQueue(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	f.queue.items = []models.QueueItem{{ID: "1", Status: models.QueuePending}}
	require.NoError(t, f.svc.ClearQueue(ctx))
	assert.Empty(t, f.queue.items)
}

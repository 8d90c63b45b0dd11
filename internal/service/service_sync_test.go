// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

// fakeServerSyncRepository scripts per-mutation outcomes keyed by mutation id.
type fakeServerSyncRepository struct {
	conflicts map[string]*models.PushConflict
	applyErr  map[string]error
	applied   []string

	changes       []models.RemoteChange
	counts        map[string]int
	openConflicts int
}

func (r *fakeServerSyncRepository) ApplyMutation(_ context.Context, _ int64, change models.ChangeUpload) (*models.PushConflict, error) {
	if err := r.applyErr[change.MutationID]; err != nil {
		return nil, err
	}
	if conflict := r.conflicts[change.MutationID]; conflict != nil {
		r.openConflicts++
		return conflict, nil
	}
	r.applied = append(r.applied, change.MutationID)
	return nil, nil
}

func (r *fakeServerSyncRepository) ChangesSince(_ context.Context, _ int64, since *time.Time) ([]models.RemoteChange, error) {
	if since == nil {
		return r.changes, nil
	}
	var after []models.RemoteChange
	for _, change := range r.changes {
		if change.UpdatedAt.After(*since) {
			after = append(after, change)
		}
	}
	return after, nil
}

func (r *fakeServerSyncRepository) CountsByType(_ context.Context, _ int64) (map[string]int, error) {
	return r.counts, nil
}

func (r *fakeServerSyncRepository) CountOpenConflicts(_ context.Context, _ int64) (int, error) {
	return r.openConflicts, nil
}

func TestSyncService_Push_SplitsAcceptedAndConflicts(t *testing.T) {
	repo := &fakeServerSyncRepository{
		conflicts: map[string]*models.PushConflict{
			"m-2": {
				MutationID:    "m-2",
				EntityType:    models.EntityTransaction,
				EntityID:      "tx-2",
				RemoteVersion: 5,
				RemotePayload: json.RawMessage(`{"amount":99}`),
			},
		},
	}
	svc := NewSyncService(repo, logger.Nop())

	resp, err := svc.Push(context.Background(), 1, models.PushRequest{
		DeviceID: "device-1",
		Mutations: []models.ChangeUpload{
			{MutationID: "m-1", EntityType: models.EntityTransaction, EntityID: "tx-1", Operation: models.OpCreate},
			{MutationID: "m-2", EntityType: models.EntityTransaction, EntityID: "tx-2", Operation: models.OpUpdate},
			{MutationID: "m-3", EntityType: models.EntityAccount, EntityID: "acc-1", Operation: models.OpCreate},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"m-3", "m-1"}, resp.Accepted,
		"the account mutation applies before the transactions")
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "m-2", resp.Conflicts[0].MutationID)
	assert.False(t, resp.ServerTime.IsZero())
}

func TestSyncService_Push_AppliesInDependencyOrder(t *testing.T) {
	repo := &fakeServerSyncRepository{}
	svc := NewSyncService(repo, logger.Nop())

	// Clients enqueue in local mutation order, which may put a transaction
	// before the book it belongs to. The server reorders so referenced
	// aggregates land first.
	resp, err := svc.Push(context.Background(), 1, models.PushRequest{
		DeviceID: "device-1",
		Mutations: []models.ChangeUpload{
			{MutationID: "m-1", EntityType: models.EntityTransaction, EntityID: "tx-1", Operation: models.OpCreate},
			{MutationID: "m-2", EntityType: models.EntityBook, EntityID: "book-1", Operation: models.OpCreate},
			{MutationID: "m-3", EntityType: models.EntityAccount, EntityID: "acc-1", Operation: models.OpCreate},
			{MutationID: "m-4", EntityType: models.EntityAccount, EntityID: "acc-2", Operation: models.OpCreate},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"m-2", "m-3", "m-4", "m-1"}, repo.applied,
		"books before accounts before transactions, request order kept within a type")
	assert.Equal(t, []string{"m-2", "m-3", "m-4", "m-1"}, resp.Accepted)
}

func TestSyncService_Push_RepositoryErrorAbortsBatch(t *testing.T) {
	repo := &fakeServerSyncRepository{
		applyErr: map[string]error{"m-2": errors.New("deadlock")},
	}
	svc := NewSyncService(repo, logger.Nop())

	_, err := svc.Push(context.Background(), 1, models.PushRequest{
		Mutations: []models.ChangeUpload{
			{MutationID: "m-1"},
			{MutationID: "m-2"},
			{MutationID: "m-3"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, []string{"m-1"}, repo.applied,
		"mutations after the failure stay unapplied for the client to retry")
}

func TestSyncService_Pull(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	repo := &fakeServerSyncRepository{
		changes: []models.RemoteChange{
			{EntityType: models.EntityAccount, EntityID: "acc-1", Version: 1, UpdatedAt: base.Add(time.Minute)},
			{EntityType: models.EntityTransaction, EntityID: "tx-1", Version: 3, UpdatedAt: base.Add(2 * time.Minute)},
		},
	}
	svc := NewSyncService(repo, logger.Nop())

	t.Run("full pull", func(t *testing.T) {
		resp, err := svc.Pull(context.Background(), 1, models.PullRequest{})
		require.NoError(t, err)
		assert.Len(t, resp.Changes, 2)
		assert.True(t, resp.NewCheckpoint.Equal(base.Add(2*time.Minute)),
			"the checkpoint is the newest delta's timestamp, not the server clock")
		assert.False(t, resp.HasMore)
	})

	t.Run("incremental pull", func(t *testing.T) {
		since := base.Add(time.Minute)
		resp, err := svc.Pull(context.Background(), 1, models.PullRequest{Since: &since})
		require.NoError(t, err)
		require.Len(t, resp.Changes, 1)
		assert.Equal(t, "tx-1", resp.Changes[0].EntityID)
	})

	t.Run("empty pull uses server time", func(t *testing.T) {
		empty := NewSyncService(&fakeServerSyncRepository{}, logger.Nop())
		resp, err := empty.Pull(context.Background(), 1, models.PullRequest{})
		require.NoError(t, err)
		assert.Empty(t, resp.Changes)
		assert.WithinDuration(t, time.Now().UTC(), resp.NewCheckpoint, 5*time.Second)
	})
}

func TestSyncService_Status(t *testing.T) {
	repo := &fakeServerSyncRepository{
		counts:        map[string]int{models.EntityTransaction: 10, models.EntityAccount: 2},
		openConflicts: 3,
	}
	svc := NewSyncService(repo, logger.Nop())

	resp, err := svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, repo.counts, resp.EntityCounts)
	assert.Equal(t, 3, resp.PendingConflicts)
	assert.False(t, resp.ServerTime.IsZero())
}

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
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type backupFixture struct {
	entities *memEntities
	backups  *memBackups
	svc      BackupManager
}

func newBackupFixture() *backupFixture {
	f := &backupFixture{
		entities: newMemEntities(),
		backups:  newMemBackups(),
	}
	f.svc = NewBackupManager(f.entities, f.backups, logger.Nop())
	return f
}

func TestBackupManager_CreateBackup_CapturesTombstones(t *testing.T) {
	f := newBackupFixture()
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, f.entities.Upsert(ctx, models.Entity{
		EntityType: models.EntityAccount,
		EntityID:   "acc-1",
		Payload:    json.RawMessage(`{"name":"cash"}`),
		Version:    2,
	}))
	require.NoError(t, f.entities.Upsert(ctx, models.Entity{
		EntityType: models.EntityTransaction,
		EntityID:   "tx-1",
		Deleted:    true,
		DeletedAt:  &now,
	}))

	meta, err := f.svc.CreateBackup(ctx, "before migration", models.BackupManual)
	require.NoError(t, err)

	assert.Equal(t, "before migration", meta.Name)
	assert.Equal(t, models.BackupManual, meta.BackupType)
	assert.NotEmpty(t, meta.ID)
	assert.Positive(t, meta.SizeBytes)
	assert.Equal(t, map[string]int{models.EntityAccount: 1}, meta.EntityCounts,
		"tombstones are captured but not counted as live records")

	archive, err := f.backups.Read(ctx, meta.ID)
	require.NoError(t, err)
	assert.Len(t, archive.Entities, 2, "the archive holds every row, tombstones included")
}

func TestBackupManager_CreateBackup_DefaultName(t *testing.T) {
	f := newBackupFixture()

	meta, err := f.svc.CreateBackup(context.Background(), "", models.BackupAutomatic)
	require.NoError(t, err)
	assert.Contains(t, meta.Name, "backup ")
}

func TestBackupManager_CreateBackup_StoreFailureLeavesNothing(t *testing.T) {
	f := newBackupFixture()
	f.backups.writeErr = errors.New("disk full")

	_, err := f.svc.CreateBackup(context.Background(), "doomed", models.BackupManual)
	require.Error(t, err)

	backups, listErr := f.svc.ListBackups(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, backups)
}

func TestBackupManager_RestoreBackup_OverwriteReplacesDataset(t *testing.T) {
	f := newBackupFixture()
	ctx := context.Background()

	require.NoError(t, f.entities.Upsert(ctx, models.Entity{
		EntityType: models.EntityAccount, EntityID: "acc-1",
		Payload: json.RawMessage(`{"name":"cash"}`), Version: 1,
	}))
	meta, err := f.svc.CreateBackup(ctx, "snapshot", models.BackupManual)
	require.NoError(t, err)

	// Mutate the dataset after the snapshot.
	require.NoError(t, f.entities.Upsert(ctx, models.Entity{
		EntityType: models.EntityAccount, EntityID: "acc-2",
		Payload: json.RawMessage(`{"name":"card"}`), Version: 1,
	}))

	require.NoError(t, f.svc.RestoreBackup(ctx, meta.ID, false))

	_, err = f.entities.Get(ctx, models.EntityKey{EntityType: models.EntityAccount, EntityID: "acc-2"})
	assert.ErrorIs(t, err, store.ErrEntityNotFound, "overwrite restore drops rows absent from the snapshot")

	_, err = f.entities.Get(ctx, models.EntityKey{EntityType: models.EntityAccount, EntityID: "acc-1"})
	assert.NoError(t, err)
}

func TestBackupManager_RestoreBackup_MergeKeepsNewRows(t *testing.T) {
	f := newBackupFixture()
	ctx := context.Background()

	require.NoError(t, f.entities.Upsert(ctx, models.Entity{
		EntityType: models.EntityAccount, EntityID: "acc-1",
		Payload: json.RawMessage(`{"name":"cash"}`), Version: 1,
	}))
	meta, err := f.svc.CreateBackup(ctx, "snapshot", models.BackupManual)
	require.NoError(t, err)

	require.NoError(t, f.entities.Upsert(ctx, models.Entity{
		EntityType: models.EntityAccount, EntityID: "acc-2",
		Payload: json.RawMessage(`{"name":"card"}`), Version: 1,
	}))

	require.NoError(t, f.svc.RestoreBackup(ctx, meta.ID, true))

	_, err = f.entities.Get(ctx, models.EntityKey{EntityType: models.EntityAccount, EntityID: "acc-2"})
	assert.NoError(t, err, "merge restore never deletes")
	_, err = f.entities.Get(ctx, models.EntityKey{EntityType: models.EntityAccount, EntityID: "acc-1"})
	assert.NoError(t, err)
}

func TestBackupManager_RestoreBackup_UnknownID(t *testing.T) {
	f := newBackupFixture()

	err := f.svc.RestoreBackup(context.Background(), "no-such-backup", false)
	assert.ErrorIs(t, err, store.ErrBackupNotFound)
}

func TestBackupManager_DeleteBackup(t *testing.T) {
	f := newBackupFixture()
	ctx := context.Background()

	meta, err := f.svc.CreateBackup(ctx, "snapshot", models.BackupManual)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBackup(ctx, meta.ID))

	backups, err := f.svc.ListBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups)

	assert.ErrorIs(t, f.svc.DeleteBackup(ctx, meta.ID), store.ErrBackupNotFound)
}

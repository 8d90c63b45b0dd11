package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type backupManager struct {
	entities store.EntityRepository
	backups  store.BackupStore
	logger   *logger.Logger
}

// NewBackupManager builds the backup service over the entity repository and
// the file-backed backup store.
func NewBackupManager(entities store.EntityRepository, backups store.BackupStore, log *logger.Logger) BackupManager {
	return &backupManager{entities: entities, backups: backups, logger: log}
}

// CreateBackup snapshots every local entity row, tombstones included, into
// one immutable archive. The store persists artifact and index atomically,
// so a failed creation leaves no partial snapshot behind.
func (b *backupManager) CreateBackup(ctx context.Context, name string, backupType int) (models.BackupData, error) {
	log := logger.FromContext(ctx)

	entities, err := b.entities.All(ctx)
	if err != nil {
		return models.BackupData{}, fmt.Errorf("failed to capture dataset: %w", err)
	}

	now := time.Now().UTC()
	archive := models.BackupArchive{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Entities:  entities,
	}

	raw, err := json.Marshal(archive)
	if err != nil {
		return models.BackupData{}, fmt.Errorf("failed to encode backup archive: %w", err)
	}

	counts := make(map[string]int)
	for _, entity := range entities {
		if entity.Deleted {
			continue
		}
		counts[entity.EntityType]++
	}

	if name == "" {
		name = "backup " + now.Format("2006-01-02 15:04")
	}
	meta := models.BackupData{
		ID:           archive.ID,
		Name:         name,
		BackupType:   backupType,
		CreatedAt:    now,
		SizeBytes:    int64(len(raw)),
		EntityCounts: counts,
	}

	if err := b.backups.Write(ctx, meta, archive); err != nil {
		return models.BackupData{}, err
	}

	log.Info().
		Str("func", "backupManager.CreateBackup").
		Str("backup_id", meta.ID).
		Str("name", meta.Name).
		Int("entities", len(entities)).
		Msg("backup created")
	return meta, nil
}

func (b *backupManager) ListBackups(ctx context.Context) ([]models.BackupData, error) {
	return b.backups.List(ctx)
}

// RestoreBackup applies a snapshot to the local dataset. Overwrite mode
// swaps the dataset wholesale; merge mode upserts snapshot rows and keeps
// everything else. Restoring never contacts the server: restored rows go
// back out through the regular queue when the user edits them.
func (b *backupManager) RestoreBackup(ctx context.Context, id string, merge bool) error {
	log := logger.FromContext(ctx)

	archive, err := b.backups.Read(ctx, id)
	if err != nil {
		return err
	}

	if merge {
		err = b.entities.UpsertBatch(ctx, archive.Entities)
	} else {
		err = b.entities.ReplaceAll(ctx, archive.Entities)
	}
	if err != nil {
		return fmt.Errorf("failed to restore backup %s: %w", id, err)
	}

	log.Info().
		Str("func", "backupManager.RestoreBackup").
		Str("backup_id", id).
		Bool("merge", merge).
		Int("entities", len(archive.Entities)).
		Msg("backup restored")
	return nil
}

func (b *backupManager) DeleteBackup(ctx context.Context, id string) error {
	return b.backups.Delete(ctx, id)
}

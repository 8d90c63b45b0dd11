// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

const backupIndexFile = "index.json"

// backupFileStore persists one immutable snapshot artifact per backup id
// under dir, named deterministically ("backup_<id>.json"), plus an index
// file listing metadata. Artifacts are written to a temporary file first and
// renamed into place so a snapshot is either fully present or absent.
type backupFileStore struct {
	dir    string
	logger *logger.Logger

	mu sync.Mutex
}

// NewBackupFileStore constructs the file-based [BackupStore] rooted at dir,
// creating the directory if needed.
func NewBackupFileStore(dir string, log *logger.Logger) (BackupStore, error) {
	if dir == "" {
		dir = "backups"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}

	return &backupFileStore{dir: dir, logger: log}, nil
}

func (b *backupFileStore) artifactPath(id string) string {
	return filepath.Join(b.dir, fmt.Sprintf("backup_%s.json", id))
}

func (b *backupFileStore) Write(ctx context.Context, meta models.BackupData, archive models.BackupArchive) error {
	log := logger.FromContext(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	payload, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("failed to encode backup archive: %w", err)
	}

	tmp := b.artifactPath(meta.ID) + ".tmp"
	if err = os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("failed to write backup artifact: %w", err)
	}
	if err = os.Rename(tmp, b.artifactPath(meta.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize backup artifact: %w", err)
	}

	index, err := b.readIndex()
	if err != nil {
		os.Remove(b.artifactPath(meta.ID))
		return err
	}
	index = append(index, meta)
	if err = b.writeIndex(index); err != nil {
		os.Remove(b.artifactPath(meta.ID))
		return err
	}

	log.Info().
		Str("func", "backupFileStore.Write").
		Str("backup_id", meta.ID).
		Int64("size_bytes", meta.SizeBytes).
		Msg("backup snapshot persisted")
	return nil
}

func (b *backupFileStore) List(ctx context.Context) ([]models.BackupData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	index, err := b.readIndex()
	if err != nil {
		return nil, err
	}

	sort.Slice(index, func(i, j int) bool {
		return index[i].CreatedAt.After(index[j].CreatedAt)
	})

	return index, nil
}

func (b *backupFileStore) Read(ctx context.Context, id string) (models.BackupArchive, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.findMeta(id); err != nil {
		return models.BackupArchive{}, err
	}

	raw, err := os.ReadFile(b.artifactPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return models.BackupArchive{}, ErrBackupNotFound
		}
		return models.BackupArchive{}, fmt.Errorf("failed to read backup artifact %s: %w", id, err)
	}

	var archive models.BackupArchive
	if err = json.Unmarshal(raw, &archive); err != nil {
		return models.BackupArchive{}, fmt.Errorf("failed to decode backup artifact %s: %w", id, err)
	}

	return archive, nil
}

func (b *backupFileStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	index, err := b.readIndex()
	if err != nil {
		return err
	}

	found := false
	kept := index[:0]
	for _, meta := range index {
		if meta.ID == id {
			found = true
			continue
		}
		kept = append(kept, meta)
	}
	if !found {
		return ErrBackupNotFound
	}

	if err = b.writeIndex(kept); err != nil {
		return err
	}
	if err = os.Remove(b.artifactPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove backup artifact %s: %w", id, err)
	}

	log.Info().
		Str("func", "backupFileStore.Delete").
		Str("backup_id", id).
		Msg("backup snapshot deleted")
	return nil
}

func (b *backupFileStore) findMeta(id string) (models.BackupData, error) {
	index, err := b.readIndex()
	if err != nil {
		return models.BackupData{}, err
	}
	for _, meta := range index {
		if meta.ID == id {
			return meta, nil
		}
	}

	return models.BackupData{}, ErrBackupNotFound
}

func (b *backupFileStore) readIndex() ([]models.BackupData, error) {
	raw, err := os.ReadFile(filepath.Join(b.dir, backupIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup index: %w", err)
	}

	var index []models.BackupData
	if err = json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("failed to decode backup index: %w", err)
	}

	return index, nil
}

func (b *backupFileStore) writeIndex(index []models.BackupData) error {
	payload, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup index: %w", err)
	}

	path := filepath.Join(b.dir, backupIndexFile)
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("failed to write backup index: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize backup index: %w", err)
	}

	return nil
}

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-ledger-sync/internal/config"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
)

// ClientStorages groups all engine-side storage repositories into a single
// value that can be passed around the service layer.
type ClientStorages struct {
	// Queue is the durable mutation queue.
	Queue QueueRepository
	// Entities is the local dataset (tombstones included).
	Entities EntityRepository
	// Conflicts is the detected-divergence table.
	Conflicts ConflictRepository
	// History is the append-only sync record table.
	History HistoryRepository
	// Settings is the key/value store for SyncSettings, CleanupSettings
	// and the device id.
	Settings SettingsRepository
	// Backups is the file-based snapshot store.
	Backups BackupStore
}

// NewClientStorages initialises the engine storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path in cfg.DB.DSN, creating
//     the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Constructs all repositories; queue construction also recovers items
//     left in flight by a previous crash.
//  4. Opens the file-based backup store rooted at cfg.BackupDir.
//
// Returns an error if the database connection cannot be established, if
// migration fails, or if the persisted queue is unreadable
// ([ErrQueueCorrupted] — the caller surfaces it and offers a queue reset).
func NewClientStorages(cfg config.EngineStorage, log *logger.Logger) (*ClientStorages, error) {
	log.Info().Msg("creating engine storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	queue, err := NewQueueRepository(db, log)
	if err != nil {
		return nil, fmt.Errorf("queue initialization failed: %w", err)
	}

	backups, err := NewBackupFileStore(cfg.BackupDir, log)
	if err != nil {
		return nil, fmt.Errorf("backup store initialization failed: %w", err)
	}

	return &ClientStorages{
		Queue:     queue,
		Entities:  NewEntityRepository(db, log),
		Conflicts: NewConflictRepository(db, log),
		History:   NewHistoryRepository(db, log),
		Settings:  NewSettingsRepository(db, log),
		Backups:   backups,
	}, nil
}

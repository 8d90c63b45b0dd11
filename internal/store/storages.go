package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-ledger-sync/internal/config"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
)

// Storages groups all server-side repositories.
type Storages struct {
	UserRepository UserRepository
	SyncRepository ServerSyncRepository
}

// NewStorages initialises the server storage layer: opens the Postgres
// connection, applies migrations and wires the repositories.
func NewStorages(cfg config.Storage, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectPostgres(context.Background(), cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		UserRepository: NewUserRepository(db, log),
		SyncRepository: NewServerSyncRepository(db, log),
	}, nil
}

package service

import (
	"context"

	"github.com/MKhiriev/go-ledger-sync/internal/adapter"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type ClientServices struct {
	Queue        MutationQueue
	Resolver     ConflictResolver
	Backups      BackupManager
	Cleanup      CleanupService
	Orchestrator Orchestrator
	SyncJob      SyncJob
}

func NewClientServices(
	ctx context.Context,
	storages *store.ClientStorages,
	remote adapter.RemoteEndpoint,
	monitor ConnectivityMonitor,
	fallback models.SyncSettings,
	log *logger.Logger,
) (*ClientServices, error) {
	resolver := NewConflictResolver(storages.Conflicts, storages.Entities, storages.Queue, log)
	queue := NewMutationQueue(storages.Queue, storages.Entities, storages.Settings, storages.History, remote, resolver, log)
	backups := NewBackupManager(storages.Entities, storages.Backups, log)
	cleanup := NewCleanupService(storages.Entities, storages.Conflicts, storages.Queue, storages.History, storages.Settings, log)

	orchestrator, err := NewOrchestrator(ctx, queue, resolver, backups, cleanup, remote, storages.History, storages.Settings, monitor, fallback, log)
	if err != nil {
		return nil, err
	}

	return &ClientServices{
		Queue:        queue,
		Resolver:     resolver,
		Backups:      backups,
		Cleanup:      cleanup,
		Orchestrator: orchestrator,
		SyncJob:      NewSyncJob(orchestrator, log),
	}, nil
}

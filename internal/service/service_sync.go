package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type syncService struct {
	syncRepository store.ServerSyncRepository
	logger         *logger.Logger
}

// NewSyncService wires the server sync service to the authoritative dataset
// repository.
func NewSyncService(syncRepository store.ServerSyncRepository, log *logger.Logger) SyncService {
	return &syncService{syncRepository: syncRepository, logger: log}
}

// Push applies uploaded mutations in dependency order: books before the
// accounts and categories that reference them, transactions and budgets
// last. Within a type the request order is kept, so per-entity queue
// ordering survives. Each mutation lands in exactly one of the two result
// lists; a repository error aborts the batch so the client retries the
// remainder later.
func (s *syncService) Push(ctx context.Context, userID int64, req models.PushRequest) (models.PushResponse, error) {
	log := logger.FromContext(ctx)

	mutations := make([]models.ChangeUpload, len(req.Mutations))
	copy(mutations, req.Mutations)
	sort.SliceStable(mutations, func(i, j int) bool {
		return models.EntityTypeRank(mutations[i].EntityType) < models.EntityTypeRank(mutations[j].EntityType)
	})

	resp := models.PushResponse{
		Accepted:  make([]string, 0, len(mutations)),
		Conflicts: []models.PushConflict{},
	}

	for _, change := range mutations {
		conflict, err := s.syncRepository.ApplyMutation(ctx, userID, change)
		if err != nil {
			log.Err(err).
				Str("func", "syncService.Push").
				Str("mutation_id", change.MutationID).
				Msg("mutation application failed")
			return models.PushResponse{}, fmt.Errorf("failed to apply mutation %s: %w", change.MutationID, err)
		}
		if conflict != nil {
			resp.Conflicts = append(resp.Conflicts, *conflict)
			continue
		}
		resp.Accepted = append(resp.Accepted, change.MutationID)
	}

	resp.ServerTime = time.Now().UTC()

	log.Info().
		Str("func", "syncService.Push").
		Int64("user_id", userID).
		Str("device_id", req.DeviceID).
		Int("accepted", len(resp.Accepted)).
		Int("conflicts", len(resp.Conflicts)).
		Msg("push processed")
	return resp, nil
}

// Pull returns every delta with updated_at after the client's checkpoint.
// The new checkpoint is the timestamp of the newest delta returned, so a
// concurrent commit racing the query is offered again next pull.
func (s *syncService) Pull(ctx context.Context, userID int64, req models.PullRequest) (models.PullResponse, error) {
	changes, err := s.syncRepository.ChangesSince(ctx, userID, req.Since)
	if err != nil {
		return models.PullResponse{}, fmt.Errorf("failed to list changes: %w", err)
	}

	checkpoint := time.Now().UTC()
	if len(changes) > 0 {
		checkpoint = changes[len(changes)-1].UpdatedAt
	}

	return models.PullResponse{
		Changes:       changes,
		NewCheckpoint: checkpoint,
		HasMore:       false,
	}, nil
}

func (s *syncService) Status(ctx context.Context, userID int64) (models.StatusResponse, error) {
	counts, err := s.syncRepository.CountsByType(ctx, userID)
	if err != nil {
		return models.StatusResponse{}, fmt.Errorf("failed to count entities: %w", err)
	}

	pending, err := s.syncRepository.CountOpenConflicts(ctx, userID)
	if err != nil {
		return models.StatusResponse{}, fmt.Errorf("failed to count open conflicts: %w", err)
	}

	return models.StatusResponse{
		ServerTime:       time.Now().UTC(),
		EntityCounts:     counts,
		PendingConflicts: pending,
	}, nil
}

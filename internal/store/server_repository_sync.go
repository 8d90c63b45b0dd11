package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type serverSyncRepository struct {
	*ServerDB
	logger *logger.Logger
}

// NewServerSyncRepository constructs the Postgres-backed authoritative
// dataset repository.
func NewServerSyncRepository(db *ServerDB, log *logger.Logger) ServerSyncRepository {
	return &serverSyncRepository{ServerDB: db, logger: log}
}

func (s *serverSyncRepository) ApplyMutation(ctx context.Context, userID int64, change models.ChangeUpload) (*models.PushConflict, error) {
	log := logger.FromContext(ctx)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin mutation transaction: %w", err)
	}
	defer tx.Rollback()

	// Journal first: a mutation id seen before was already applied, so the
	// re-send is acknowledged without touching the dataset.
	res, err := tx.ExecContext(ctx, journalMutation, userID, change.MutationID)
	if err != nil {
		return nil, fmt.Errorf("failed to journal mutation %s: %w", change.MutationID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		log.Debug().
			Str("func", "serverSyncRepository.ApplyMutation").
			Str("mutation_id", change.MutationID).
			Msg("duplicate mutation acknowledged without re-applying")
		return nil, tx.Commit()
	}

	var currentVersion int64
	var currentPayload json.RawMessage
	var currentDeleted bool
	exists := true
	err = tx.QueryRowContext(ctx, lockServerEntity, userID, change.EntityType, change.EntityID).
		Scan(&currentVersion, &currentPayload, &currentDeleted)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to lock entity %s/%s: %w", change.EntityType, change.EntityID, err)
		}
		exists = false
	}

	// Optimistic concurrency: the client's base version must match the
	// current server version, otherwise the remote copy moved and the
	// mutation is refused as a conflict. The whole transaction rolls back
	// so the refused mutation id stays out of the journal and a later
	// localWins re-upload is not mistaken for a duplicate.
	if exists && currentVersion != change.BaseVersion {
		conflict := &models.PushConflict{
			MutationID:    change.MutationID,
			EntityType:    change.EntityType,
			EntityID:      change.EntityID,
			RemoteVersion: currentVersion,
			RemotePayload: currentPayload,
			RemoteDeleted: currentDeleted,
		}
		return conflict, s.recordConflict(ctx, userID, change)
	}
	if !exists && change.Operation != models.OpCreate && change.BaseVersion != 0 {
		// Updating or deleting a row the server never had with a non-zero
		// base: the row was purged remotely, surface the divergence.
		conflict := &models.PushConflict{
			MutationID:    change.MutationID,
			EntityType:    change.EntityType,
			EntityID:      change.EntityID,
			RemoteVersion: 0,
			RemoteDeleted: true,
		}
		return conflict, s.recordConflict(ctx, userID, change)
	}

	newVersion := currentVersion + 1
	deleted := change.Operation == models.OpDelete
	payload := change.Payload
	if deleted && payload == nil {
		payload = currentPayload
	}

	if _, err = tx.ExecContext(ctx, upsertServerEntity,
		userID,
		change.EntityType,
		change.EntityID,
		payload,
		newVersion,
		deleted,
	); err != nil {
		return nil, fmt.Errorf("failed to apply mutation %s: %w", change.MutationID, err)
	}

	// A successful apply settles any previously recorded refusal for the
	// entity, so the status endpoint stops reporting it as pending.
	if _, err = tx.ExecContext(ctx, clearServerConflict, userID, change.EntityType, change.EntityID); err != nil {
		return nil, fmt.Errorf("failed to clear conflict for entity %s/%s: %w", change.EntityType, change.EntityID, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit mutation %s: %w", change.MutationID, err)
	}

	return nil, nil
}

// recordConflict journals a refused mutation outside the apply transaction,
// which rolls back on the conflict path. One open row per entity: a newer
// refusal for the same entity overwrites the older one.
func (s *serverSyncRepository) recordConflict(ctx context.Context, userID int64, change models.ChangeUpload) error {
	if _, err := s.DB.ExecContext(ctx, recordServerConflict,
		userID,
		change.EntityType,
		change.EntityID,
		change.MutationID,
	); err != nil {
		return fmt.Errorf("failed to record conflict for mutation %s: %w", change.MutationID, err)
	}
	return nil
}

func (s *serverSyncRepository) ChangesSince(ctx context.Context, userID int64, since *time.Time) ([]models.RemoteChange, error) {
	log := logger.FromContext(ctx)

	builder := sq.Select("entity_type", "entity_id", "payload", "version", "deleted", "updated_at").
		From("server_entities").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("updated_at", "entity_type", "entity_id").
		PlaceholderFormat(sq.Dollar)
	if since != nil {
		builder = builder.Where(sq.Gt{"updated_at": *since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build changes query: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "serverSyncRepository.ChangesSince").
			Int64("user_id", userID).
			Msg("failed to query server changes")
		return nil, fmt.Errorf("failed to query server changes: %w", err)
	}
	defer rows.Close()

	var changes []models.RemoteChange
	for rows.Next() {
		var change models.RemoteChange
		if err = rows.Scan(
			&change.EntityType,
			&change.EntityID,
			&change.Payload,
			&change.Version,
			&change.Deleted,
			&change.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan server change row: %w", err)
		}
		changes = append(changes, change)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate server change rows: %w", err)
	}

	return changes, nil
}

func (s *serverSyncRepository) CountsByType(ctx context.Context, userID int64) (map[string]int, error) {
	rows, err := s.DB.QueryContext(ctx, countServerEntitiesByType, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count server entities: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var entityType string
		var count int
		if err = rows.Scan(&entityType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan server entity count row: %w", err)
		}
		counts[entityType] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate server entity count rows: %w", err)
	}

	return counts, nil
}

func (s *serverSyncRepository) CountOpenConflicts(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, countServerConflicts, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open conflicts: %w", err)
	}
	return count, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type entityRepository struct {
	*DB
	logger *logger.Logger
}

// NewEntityRepository constructs the SQLite-backed local dataset repository.
func NewEntityRepository(db *DB, log *logger.Logger) EntityRepository {
	return &entityRepository{DB: db, logger: log}
}

func (e *entityRepository) Upsert(ctx context.Context, entity models.Entity) error {
	log := logger.FromContext(ctx)

	_, err := e.DB.ExecContext(ctx, upsertEntity,
		entity.EntityType,
		entity.EntityID,
		entity.Payload,
		entity.Version,
		entity.Dirty,
		entity.Deleted,
		entity.DeletedAt,
		entity.UpdatedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.Upsert").
			Str("entity_type", entity.EntityType).
			Str("entity_id", entity.EntityID).
			Msg("failed to upsert entity")
		return fmt.Errorf("failed to upsert entity %s/%s: %w", entity.EntityType, entity.EntityID, err)
	}

	return nil
}

func (e *entityRepository) Get(ctx context.Context, key models.EntityKey) (models.Entity, error) {
	row := e.DB.QueryRowContext(ctx, getEntity, key.EntityType, key.EntityID)

	entity, err := scanEntity(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entity{}, ErrEntityNotFound
		}
		return models.Entity{}, fmt.Errorf("failed to get entity %s/%s: %w", key.EntityType, key.EntityID, err)
	}

	return entity, nil
}

func (e *entityRepository) All(ctx context.Context) ([]models.Entity, error) {
	rows, err := e.DB.QueryContext(ctx, getAllEntities)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

func (e *entityRepository) ApplyRemote(ctx context.Context, change models.RemoteChange) error {
	log := logger.FromContext(ctx)

	if change.Deleted {
		// The server already carries the deletion; no tombstone needed.
		if _, err := e.DB.ExecContext(ctx, deleteEntity, change.EntityType, change.EntityID); err != nil {
			return fmt.Errorf("failed to apply remote delete %s/%s: %w", change.EntityType, change.EntityID, err)
		}
		return nil
	}

	entity := models.Entity{
		EntityType: change.EntityType,
		EntityID:   change.EntityID,
		Payload:    change.Payload,
		Version:    change.Version,
		Dirty:      false,
		UpdatedAt:  change.UpdatedAt,
	}
	if err := e.Upsert(ctx, entity); err != nil {
		log.Err(err).
			Str("func", "entityRepository.ApplyRemote").
			Str("entity_id", change.EntityID).
			Msg("failed to apply remote change")
		return err
	}

	return nil
}

func (e *entityRepository) SoftDelete(ctx context.Context, key models.EntityKey, at time.Time) error {
	res, err := e.DB.ExecContext(ctx, softDeleteEntity, at, key.EntityType, key.EntityID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete entity %s/%s: %w", key.EntityType, key.EntityID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

func (e *entityRepository) ClearDirty(ctx context.Context, key models.EntityKey, version int64) error {
	if _, err := e.DB.ExecContext(ctx, clearEntityDirty, version, key.EntityType, key.EntityID); err != nil {
		return fmt.Errorf("failed to clear dirty marker for %s/%s: %w", key.EntityType, key.EntityID, err)
	}

	return nil
}

func (e *entityRepository) TombstonesOlderThan(ctx context.Context, cutoff time.Time) ([]models.Entity, error) {
	rows, err := e.DB.QueryContext(ctx, selectTombstonesOlderThan, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query tombstones: %w", err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

func (e *entityRepository) Purge(ctx context.Context, key models.EntityKey) error {
	res, err := e.DB.ExecContext(ctx, deleteEntity, key.EntityType, key.EntityID)
	if err != nil {
		return fmt.Errorf("failed to purge entity %s/%s: %w", key.EntityType, key.EntityID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

func (e *entityRepository) CountsByType(ctx context.Context) (map[string]int, error) {
	rows, err := e.DB.QueryContext(ctx, countEntitiesByType)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var entityType string
		var count int
		if err = rows.Scan(&entityType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan entity count row: %w", err)
		}
		counts[entityType] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entity count rows: %w", err)
	}

	return counts, nil
}

func (e *entityRepository) ReplaceAll(ctx context.Context, entities []models.Entity) error {
	log := logger.FromContext(ctx)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteAllEntities); err != nil {
		return fmt.Errorf("failed to clear dataset for restore: %w", err)
	}

	for _, entity := range entities {
		if _, err = tx.ExecContext(ctx, upsertEntity,
			entity.EntityType,
			entity.EntityID,
			entity.Payload,
			entity.Version,
			entity.Dirty,
			entity.Deleted,
			entity.DeletedAt,
			entity.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to restore entity %s/%s: %w", entity.EntityType, entity.EntityID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore transaction: %w", err)
	}

	log.Info().
		Str("func", "entityRepository.ReplaceAll").
		Int("entities", len(entities)).
		Msg("dataset replaced from snapshot")
	return nil
}

func (e *entityRepository) UpsertBatch(ctx context.Context, entities []models.Entity) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	for _, entity := range entities {
		if _, err = tx.ExecContext(ctx, upsertEntity,
			entity.EntityType,
			entity.EntityID,
			entity.Payload,
			entity.Version,
			entity.Dirty,
			entity.Deleted,
			entity.DeletedAt,
			entity.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to merge entity %s/%s: %w", entity.EntityType, entity.EntityID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge transaction: %w", err)
	}

	return nil
}

type scanFunc func(dest ...any) error

func scanEntity(scan scanFunc) (models.Entity, error) {
	var entity models.Entity
	err := scan(
		&entity.EntityType,
		&entity.EntityID,
		&entity.Payload,
		&entity.Version,
		&entity.Dirty,
		&entity.Deleted,
		&entity.DeletedAt,
		&entity.UpdatedAt,
	)
	return entity, err
}

func collectEntities(rows *sql.Rows) ([]models.Entity, error) {
	var entities []models.Entity
	for rows.Next() {
		entity, err := scanEntity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entity rows: %w", err)
	}

	return entities, nil
}

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

type conflictRepository struct {
	*DB
	logger *logger.Logger
}

// NewConflictRepository constructs the SQLite-backed conflict table.
func NewConflictRepository(db *DB, log *logger.Logger) ConflictRepository {
	return &conflictRepository{DB: db, logger: log}
}

func (c *conflictRepository) Create(ctx context.Context, conflict models.SyncConflict) error {
	log := logger.FromContext(ctx)

	_, err := c.DB.ExecContext(ctx, createConflict,
		conflict.ID,
		conflict.EntityType,
		conflict.EntityID,
		conflict.LocalVersion,
		conflict.RemoteVersion,
		conflict.RemoteServerVersion,
		conflict.DetectedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Create").
			Str("entity_id", conflict.EntityID).
			Msg("failed to insert sync conflict")
		return fmt.Errorf("failed to create conflict for %s/%s: %w", conflict.EntityType, conflict.EntityID, err)
	}

	return nil
}

func (c *conflictRepository) Get(ctx context.Context, id string) (models.SyncConflict, error) {
	row := c.DB.QueryRowContext(ctx, getConflict, id)

	conflict, err := scanConflict(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncConflict{}, ErrConflictNotFound
		}
		return models.SyncConflict{}, fmt.Errorf("failed to get conflict %s: %w", id, err)
	}

	return conflict, nil
}

func (c *conflictRepository) Unresolved(ctx context.Context) ([]models.SyncConflict, error) {
	rows, err := c.DB.QueryContext(ctx, selectUnresolvedConflicts)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []models.SyncConflict
	for rows.Next() {
		conflict, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict row: %w", err)
		}
		conflicts = append(conflicts, conflict)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conflict rows: %w", err)
	}

	return conflicts, nil
}

func (c *conflictRepository) MarkResolved(ctx context.Context, id string, resolution models.Resolution) error {
	res, err := c.DB.ExecContext(ctx, markConflictResolved, resolution.Policy, resolution.Payload, id)
	if err != nil {
		return fmt.Errorf("failed to mark conflict %s resolved: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrConflictNotFound
	}

	return nil
}

func (c *conflictRepository) HasUnresolvedForEntity(ctx context.Context, key models.EntityKey) (bool, error) {
	var count int
	err := c.DB.QueryRowContext(ctx, countUnresolvedForEntity, key.EntityType, key.EntityID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count conflicts for entity %s/%s: %w", key.EntityType, key.EntityID, err)
	}

	return count > 0, nil
}

func (c *conflictRepository) CountUnresolved(ctx context.Context) (int, error) {
	var count int
	if err := c.DB.QueryRowContext(ctx, countUnresolvedConflicts).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unresolved conflicts: %w", err)
	}

	return count, nil
}

func (c *conflictRepository) CountResolvedOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	if err := c.DB.QueryRowContext(ctx, countResolvedConflictsOlderThan, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count resolved conflicts: %w", err)
	}

	return count, nil
}

func (c *conflictRepository) PurgeResolvedOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := c.DB.ExecContext(ctx, purgeResolvedConflictsOlderThan, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge resolved conflicts: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged conflicts: %w", err)
	}

	return int(affected), nil
}

func scanConflict(scan scanFunc) (models.SyncConflict, error) {
	var conflict models.SyncConflict
	var policy sql.NullString
	var payload []byte
	var isResolved bool

	err := scan(
		&conflict.ID,
		&conflict.EntityType,
		&conflict.EntityID,
		&conflict.LocalVersion,
		&conflict.RemoteVersion,
		&conflict.RemoteServerVersion,
		&conflict.DetectedAt,
		&policy,
		&payload,
		&isResolved,
	)
	if err != nil {
		return models.SyncConflict{}, err
	}

	conflict.IsResolved = isResolved
	if policy.Valid {
		conflict.Resolution = &models.Resolution{Policy: policy.String, Payload: payload}
	}

	return conflict, nil
}

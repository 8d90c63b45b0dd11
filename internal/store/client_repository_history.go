package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type historyRepository struct {
	*DB
	logger *logger.Logger
}

// NewHistoryRepository constructs the append-only sync history table.
func NewHistoryRepository(db *DB, log *logger.Logger) HistoryRepository {
	return &historyRepository{DB: db, logger: log}
}

func (h *historyRepository) Append(ctx context.Context, record models.SyncRecord) error {
	log := logger.FromContext(ctx)

	_, err := h.DB.ExecContext(ctx, appendSyncRecord,
		record.ID,
		record.Direction,
		record.Status,
		record.StartedAt,
		record.FinishedAt,
		record.ItemsSynced,
		record.Error,
	)
	if err != nil {
		log.Err(err).
			Str("func", "historyRepository.Append").
			Str("sync_record_id", record.ID).
			Msg("failed to append sync record")
		return fmt.Errorf("failed to append sync record %s: %w", record.ID, err)
	}

	return nil
}

func (h *historyRepository) Close(ctx context.Context, id string, status string, finishedAt time.Time, itemsSynced int, cause *string) error {
	res, err := h.DB.ExecContext(ctx, closeSyncRecord, status, finishedAt, itemsSynced, cause, id)
	if err != nil {
		return fmt.Errorf("failed to close sync record %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrSyncRecordNotFound
	}

	return nil
}

func (h *historyRepository) List(ctx context.Context, limit int) ([]models.SyncRecord, error) {
	rows, err := h.DB.QueryContext(ctx, listSyncRecords, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync records: %w", err)
	}
	defer rows.Close()

	var records []models.SyncRecord
	for rows.Next() {
		var record models.SyncRecord
		if err = rows.Scan(
			&record.ID,
			&record.Direction,
			&record.Status,
			&record.StartedAt,
			&record.FinishedAt,
			&record.ItemsSynced,
			&record.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync record row: %w", err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync record rows: %w", err)
	}

	return records, nil
}

func (h *historyRepository) TotalItemsSynced(ctx context.Context) (int, error) {
	var total int
	if err := h.DB.QueryRowContext(ctx, sumItemsSynced).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum synced items: %w", err)
	}

	return total, nil
}

func (h *historyRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	if err := h.DB.QueryRowContext(ctx, countSyncRecordsOlderThan, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count old sync records: %w", err)
	}

	return count, nil
}

func (h *historyRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := h.DB.ExecContext(ctx, purgeSyncRecordsOlderThan, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge old sync records: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged sync records: %w", err)
	}

	return int(affected), nil
}

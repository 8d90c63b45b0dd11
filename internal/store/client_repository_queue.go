package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type queueRepository struct {
	*DB
	logger *logger.Logger
}

// NewQueueRepository constructs the SQLite-backed mutation queue. On open it
// verifies the queue table is readable and returns any in-flight leftovers
// from a previous crash back to pending, so a mutation sent but never
// acknowledged is re-sent rather than lost.
//
// An unreadable queue table is reported as [ErrQueueCorrupted]; the caller
// decides whether to reset the queue, nothing is discarded here.
func NewQueueRepository(db *DB, log *logger.Logger) (QueueRepository, error) {
	repo := &queueRepository{DB: db, logger: log}

	recovered, err := repo.ResetInFlight(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueCorrupted, err)
	}
	if recovered > 0 {
		log.Warn().
			Str("func", "NewQueueRepository").
			Int("recovered", recovered).
			Msg("returned in-flight queue items to pending after restart")
	}

	return repo, nil
}

func (q *queueRepository) Enqueue(ctx context.Context, item models.QueueItem) error {
	log := logger.FromContext(ctx)

	_, err := q.DB.ExecContext(ctx, enqueueItem,
		item.ID,
		item.EntityType,
		item.EntityID,
		item.Operation,
		item.Payload,
		item.Attempts,
		item.LastError,
		item.Status,
		item.EnqueuedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.Enqueue").
			Str("queue_item_id", item.ID).
			Str("entity_id", item.EntityID).
			Msg("failed to insert queue item")
		return fmt.Errorf("failed to enqueue mutation (id=%s): %w", item.ID, err)
	}

	return nil
}

func (q *queueRepository) Pending(ctx context.Context) ([]models.QueueItem, error) {
	log := logger.FromContext(ctx)

	rows, err := q.DB.QueryContext(ctx, selectPendingItems)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.Pending").
			Msg("failed to query pending queue items")
		return nil, fmt.Errorf("failed to query pending queue items: %w", err)
	}
	defer rows.Close()

	var items []models.QueueItem
	for rows.Next() {
		var item models.QueueItem
		if err = rows.Scan(
			&item.ID,
			&item.EntityType,
			&item.EntityID,
			&item.Operation,
			&item.Payload,
			&item.Attempts,
			&item.LastError,
			&item.Status,
			&item.EnqueuedAt,
		); err != nil {
			log.Err(err).
				Str("func", "queueRepository.Pending").
				Msg("failed to scan queue item row")
			return nil, fmt.Errorf("failed to scan queue item row: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue item rows: %w", err)
	}

	return items, nil
}

func (q *queueRepository) PendingForEntity(ctx context.Context, key models.EntityKey) (bool, error) {
	var count int
	err := q.DB.QueryRowContext(ctx, countUnackedForEntity, key.EntityType, key.EntityID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count queue items for entity %s/%s: %w", key.EntityType, key.EntityID, err)
	}

	return count > 0, nil
}

func (q *queueRepository) MarkInFlight(ctx context.Context, id string) error {
	res, err := q.DB.ExecContext(ctx, markItemInFlight, id)
	if err != nil {
		return fmt.Errorf("failed to mark queue item %s in flight: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrQueueItemNotFound
	}

	return nil
}

func (q *queueRepository) Ack(ctx context.Context, id string) error {
	res, err := q.DB.ExecContext(ctx, ackItem, id)
	if err != nil {
		return fmt.Errorf("failed to ack queue item %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrQueueItemNotFound
	}

	return nil
}

func (q *queueRepository) RecordFailure(ctx context.Context, id string, cause string) (models.QueueItem, error) {
	log := logger.FromContext(ctx)

	var attempts int
	if err := q.DB.QueryRowContext(ctx, selectItemForFailure, id).Scan(&attempts); err != nil {
		return models.QueueItem{}, fmt.Errorf("failed to load queue item %s: %w", id, err)
	}

	attempts++
	status := models.QueuePending
	if attempts >= models.MaxQueueAttempts {
		status = models.QueueFailed
	}

	if _, err := q.DB.ExecContext(ctx, recordItemFailure, attempts, cause, status, id); err != nil {
		log.Err(err).
			Str("func", "queueRepository.RecordFailure").
			Str("queue_item_id", id).
			Msg("failed to record queue item failure")
		return models.QueueItem{}, fmt.Errorf("failed to record failure for queue item %s: %w", id, err)
	}

	return models.QueueItem{ID: id, Attempts: attempts, LastError: &cause, Status: status}, nil
}

func (q *queueRepository) MarkFailed(ctx context.Context, id string, cause string) error {
	var attempts int
	if err := q.DB.QueryRowContext(ctx, selectItemForFailure, id).Scan(&attempts); err != nil {
		return fmt.Errorf("failed to load queue item %s: %w", id, err)
	}

	if _, err := q.DB.ExecContext(ctx, recordItemFailure, attempts+1, cause, models.QueueFailed, id); err != nil {
		return fmt.Errorf("failed to mark queue item %s failed: %w", id, err)
	}

	return nil
}

func (q *queueRepository) RetryFailed(ctx context.Context) (int, error) {
	res, err := q.DB.ExecContext(ctx, retryFailedItems)
	if err != nil {
		return 0, fmt.Errorf("failed to retry failed queue items: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count retried queue items: %w", err)
	}

	return int(affected), nil
}

func (q *queueRepository) ResetInFlight(ctx context.Context) (int, error) {
	res, err := q.DB.ExecContext(ctx, resetInFlightItems)
	if err != nil {
		return 0, fmt.Errorf("failed to reset in-flight queue items: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset queue items: %w", err)
	}

	return int(affected), nil
}

func (q *queueRepository) DeleteForEntity(ctx context.Context, key models.EntityKey) error {
	if _, err := q.DB.ExecContext(ctx, deleteItemsForEntity, key.EntityType, key.EntityID); err != nil {
		return fmt.Errorf("failed to delete queue items for entity %s/%s: %w", key.EntityType, key.EntityID, err)
	}

	return nil
}

func (q *queueRepository) Clear(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if _, err := q.DB.ExecContext(ctx, clearQueue); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}

	log.Warn().Str("func", "queueRepository.Clear").Msg("mutation queue cleared by explicit request")
	return nil
}

func (q *queueRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := q.DB.QueryContext(ctx, countItemsByStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue items: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err = rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan queue count row: %w", err)
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue count rows: %w", err)
	}

	return counts, nil
}

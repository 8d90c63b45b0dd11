// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	// ── queue_items ─────────────────────────────────────────────────────────

	enqueueItem = `
		INSERT INTO queue_items (
			id,
			entity_type,
			entity_id,
			operation,
			payload,
			attempts,
			last_error,
			status,
			enqueued_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	selectPendingItems = `
		SELECT
			id,
			entity_type,
			entity_id,
			operation,
			payload,
			attempts,
			last_error,
			status,
			enqueued_at
		FROM queue_items
		WHERE status = 'pending'
		ORDER BY enqueued_at, id;`

	countUnackedForEntity = `
		SELECT COUNT(*) FROM queue_items
		WHERE entity_type = $1 AND entity_id = $2;`

	markItemInFlight = `
		UPDATE queue_items SET status = 'in_flight' WHERE id = $1;`

	ackItem = `
		DELETE FROM queue_items WHERE id = $1;`

	selectItemForFailure = `
		SELECT attempts FROM queue_items WHERE id = $1;`

	recordItemFailure = `
		UPDATE queue_items SET
			attempts   = $1,
			last_error = $2,
			status     = $3
		WHERE id = $4;`

	retryFailedItems = `
		UPDATE queue_items SET status = 'pending', last_error = NULL
		WHERE status = 'failed';`

	resetInFlightItems = `
		UPDATE queue_items SET status = 'pending'
		WHERE status = 'in_flight';`

	deleteItemsForEntity = `
		DELETE FROM queue_items WHERE entity_type = $1 AND entity_id = $2;`

	clearQueue = `
		DELETE FROM queue_items;`

	countItemsByStatus = `
		SELECT status, COUNT(*) FROM queue_items GROUP BY status;`

	// ── entities ────────────────────────────────────────────────────────────

	upsertEntity = `
		INSERT INTO entities (
			entity_type,
			entity_id,
			payload,
			version,
			dirty,
			deleted,
			deleted_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			payload    = excluded.payload,
			version    = excluded.version,
			dirty      = excluded.dirty,
			deleted    = excluded.deleted,
			deleted_at = excluded.deleted_at,
			updated_at = excluded.updated_at;`

	getEntity = `
		SELECT entity_type, entity_id, payload, version, dirty, deleted, deleted_at, updated_at
		FROM entities
		WHERE entity_type = $1 AND entity_id = $2;`

	getAllEntities = `
		SELECT entity_type, entity_id, payload, version, dirty, deleted, deleted_at, updated_at
		FROM entities
		ORDER BY entity_type, entity_id;`

	softDeleteEntity = `
		UPDATE entities SET
			deleted    = 1,
			deleted_at = $1,
			dirty      = 1,
			updated_at = $1
		WHERE entity_type = $2 AND entity_id = $3;`

	clearEntityDirty = `
		UPDATE entities SET dirty = 0, version = $1
		WHERE entity_type = $2 AND entity_id = $3;`

	deleteEntity = `
		DELETE FROM entities WHERE entity_type = $1 AND entity_id = $2;`

	selectTombstonesOlderThan = `
		SELECT entity_type, entity_id, payload, version, dirty, deleted, deleted_at, updated_at
		FROM entities
		WHERE deleted = 1 AND deleted_at IS NOT NULL AND deleted_at < $1;`

	countEntitiesByType = `
		SELECT entity_type, COUNT(*) FROM entities
		WHERE deleted = 0
		GROUP BY entity_type;`

	deleteAllEntities = `
		DELETE FROM entities;`

	// ── sync_records ────────────────────────────────────────────────────────

	appendSyncRecord = `
		INSERT INTO sync_records (id, direction, status, started_at, finished_at, items_synced, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`

	closeSyncRecord = `
		UPDATE sync_records SET
			status       = $1,
			finished_at  = $2,
			items_synced = $3,
			error        = $4
		WHERE id = $5 AND finished_at IS NULL;`

	listSyncRecords = `
		SELECT id, direction, status, started_at, finished_at, items_synced, error
		FROM sync_records
		ORDER BY started_at DESC
		LIMIT $1;`

	sumItemsSynced = `
		SELECT COALESCE(SUM(items_synced), 0) FROM sync_records
		WHERE status = 'success';`

	countSyncRecordsOlderThan = `
		SELECT COUNT(*) FROM sync_records
		WHERE finished_at IS NOT NULL AND finished_at < $1;`

	purgeSyncRecordsOlderThan = `
		DELETE FROM sync_records
		WHERE finished_at IS NOT NULL AND finished_at < $1;`

	// ── sync_conflicts ──────────────────────────────────────────────────────

	createConflict = `
		INSERT INTO sync_conflicts (
			id,
			entity_type,
			entity_id,
			local_version,
			remote_version,
			remote_server_version,
			detected_at,
			resolution_policy,
			resolution_payload,
			is_resolved
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, NULL, 0);`

	getConflict = `
		SELECT id, entity_type, entity_id, local_version, remote_version,
		       remote_server_version, detected_at, resolution_policy,
		       resolution_payload, is_resolved
		FROM sync_conflicts
		WHERE id = $1;`

	selectUnresolvedConflicts = `
		SELECT id, entity_type, entity_id, local_version, remote_version,
		       remote_server_version, detected_at, resolution_policy,
		       resolution_payload, is_resolved
		FROM sync_conflicts
		WHERE is_resolved = 0
		ORDER BY detected_at, id;`

	markConflictResolved = `
		UPDATE sync_conflicts SET
			resolution_policy  = $1,
			resolution_payload = $2,
			is_resolved        = 1
		WHERE id = $3;`

	countUnresolvedForEntity = `
		SELECT COUNT(*) FROM sync_conflicts
		WHERE is_resolved = 0 AND entity_type = $1 AND entity_id = $2;`

	countUnresolvedConflicts = `
		SELECT COUNT(*) FROM sync_conflicts WHERE is_resolved = 0;`

	countResolvedConflictsOlderThan = `
		SELECT COUNT(*) FROM sync_conflicts
		WHERE is_resolved = 1 AND detected_at < $1;`

	purgeResolvedConflictsOlderThan = `
		DELETE FROM sync_conflicts
		WHERE is_resolved = 1 AND detected_at < $1;`

	// ── settings ────────────────────────────────────────────────────────────

	getSetting = `
		SELECT value FROM settings WHERE key = $1;`

	upsertSetting = `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	createUser = `
		INSERT INTO users (login, password)
		VALUES ($1, $2)
		RETURNING user_id, login, created_at;`

	findUserByLogin = `
		SELECT user_id, login, password, created_at
		FROM users
		WHERE login = $1;`

	journalMutation = `
		INSERT INTO applied_mutations (user_id, mutation_id, applied_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, mutation_id) DO NOTHING;`

	lockServerEntity = `
		SELECT version, payload, deleted FROM server_entities
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		FOR UPDATE;`

	upsertServerEntity = `
		INSERT INTO server_entities (
			user_id,
			entity_type,
			entity_id,
			payload,
			version,
			deleted,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, entity_type, entity_id) DO UPDATE SET
			payload    = excluded.payload,
			version    = excluded.version,
			deleted    = excluded.deleted,
			updated_at = NOW();`

	countServerEntitiesByType = `
		SELECT entity_type, COUNT(*) FROM server_entities
		WHERE user_id = $1 AND deleted = FALSE
		GROUP BY entity_type;`

	recordServerConflict = `
		INSERT INTO server_conflicts (user_id, entity_type, entity_id, mutation_id, detected_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, entity_type, entity_id) DO UPDATE SET
			mutation_id = excluded.mutation_id,
			detected_at = NOW();`

	clearServerConflict = `
		DELETE FROM server_conflicts
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3;`

	countServerConflicts = `
		SELECT COUNT(*) FROM server_conflicts
		WHERE user_id = $1;`
)

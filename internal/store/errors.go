package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEntityNotFound is returned when a query or update targets an
	// entity (identified by entity_type and entity_id) that does not exist
	// in the local dataset.
	ErrEntityNotFound = errors.New("entity was not found")

	// ErrQueueItemNotFound is returned when an operation targets a queue
	// item id that is not present in the queue table.
	ErrQueueItemNotFound = errors.New("queue item was not found")

	// ErrConflictNotFound is returned when a resolution targets a conflict
	// id that does not exist.
	ErrConflictNotFound = errors.New("sync conflict was not found")

	// ErrSyncRecordNotFound is returned when closing a sync record that
	// was never opened.
	ErrSyncRecordNotFound = errors.New("sync record was not found")

	// ErrBackupNotFound is returned when reading, restoring or deleting a
	// backup snapshot whose id is not present in the index.
	ErrBackupNotFound = errors.New("backup was not found")

	// ErrQueueCorrupted is returned when the persisted queue cannot be read
	// at startup. The engine surfaces it and offers a queue reset as the
	// recovery action; the queue is never discarded silently.
	ErrQueueCorrupted = errors.New("persisted queue is unreadable")

	// ErrLoginAlreadyExists is returned when registering a user whose
	// login is already taken.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrNoUserWasFound is returned when a query expected to match at
	// least one user record produces an empty result set.
	ErrNoUserWasFound = errors.New("no user was found")
)

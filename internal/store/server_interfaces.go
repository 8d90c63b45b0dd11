package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-ledger-sync/models"
)

//go:generate mockgen -source=server_interfaces.go -destination=../mock/server_store_mock.go -package=mock

// UserRepository stores server-side user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// ServerSyncRepository is the server-side dataset: the authoritative copy of
// every user's entities plus the applied-mutation journal that makes
// re-sent mutations idempotent.
type ServerSyncRepository interface {
	// ApplyMutation applies one uploaded mutation inside a transaction.
	// A mutation id seen before is acknowledged again without re-applying
	// (at-least-once uploads, exactly-once application). A base version
	// behind the current server version is refused with a
	// [models.PushConflict] carrying the remote copy.
	ApplyMutation(ctx context.Context, userID int64, change models.ChangeUpload) (*models.PushConflict, error)

	// ChangesSince lists deltas with updated_at strictly after since
	// (everything when since is nil), ordered by updated_at.
	ChangesSince(ctx context.Context, userID int64, since *time.Time) ([]models.RemoteChange, error)

	// CountsByType counts live records per entity type.
	CountsByType(ctx context.Context, userID int64) (map[string]int, error)

	// CountOpenConflicts counts entities whose last upload was refused and
	// has not been successfully re-applied since.
	CountOpenConflicts(ctx context.Context, userID int64) (int, error)
}

package service

import (
	"context"

	"github.com/MKhiriev/go-ledger-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthService handles server-side account registration, credential
// verification and token issuance.
type AuthService interface {
	// RegisterUser creates an account. The plaintext password is hashed
	// before persistence.
	RegisterUser(ctx context.Context, user models.User) (models.User, error)

	// Login verifies credentials and returns the stored account.
	Login(ctx context.Context, user models.User) (models.User, error)

	// CreateToken issues a signed JWT for the given user.
	CreateToken(ctx context.Context, user models.User) (models.Token, error)

	// ValidateToken verifies a bearer token and extracts the user id.
	ValidateToken(ctx context.Context, tokenString string) (models.Token, error)
}

// SyncService is the server-side counterpart of the engine: it applies
// uploaded mutations idempotently and serves delta pulls.
type SyncService interface {
	// Push applies the uploaded mutations one by one. Each mutation is
	// either acknowledged or refused with a conflict; a duplicate
	// mutation id is acknowledged again without re-applying.
	Push(ctx context.Context, userID int64, req models.PushRequest) (models.PushResponse, error)

	// Pull returns deltas after the requested checkpoint plus the new
	// checkpoint the client may commit.
	Pull(ctx context.Context, userID int64, req models.PullRequest) (models.PullResponse, error)

	// Status reports server time, per-type record counts and the number of
	// entities with an unsettled push refusal. Doubles as the engine's
	// connectivity probe target.
	Status(ctx context.Context, userID int64) (models.StatusResponse, error)
}

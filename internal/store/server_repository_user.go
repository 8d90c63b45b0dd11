package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

type userRepository struct {
	*ServerDB
	logger *logger.Logger
}

// NewUserRepository constructs the Postgres-backed user repository.
func NewUserRepository(db *ServerDB, log *logger.Logger) UserRepository {
	return &userRepository{ServerDB: db, logger: log}
}

func (u *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	var created models.User
	err := u.DB.QueryRowContext(ctx, createUser, user.Login, user.Password).
		Scan(&created.UserID, &created.Login, &created.CreatedAt)
	if err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.User{}, ErrLoginAlreadyExists
		}
		log.Err(err).
			Str("func", "userRepository.CreateUser").
			Str("login", user.Login).
			Msg("failed to insert user")
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

func (u *userRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := u.DB.QueryRowContext(ctx, findUserByLogin, login).
		Scan(&user.UserID, &user.Login, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNoUserWasFound
		}
		return models.User{}, fmt.Errorf("failed to find user by login: %w", err)
	}

	return user, nil
}

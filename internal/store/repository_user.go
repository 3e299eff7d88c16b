package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

// userRepository is the SQL-backed implementation of [UserRepository].
// It handles user creation and lookup against the "users" table.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser persists a new user and returns it with server-assigned fields
// (UserID, CreatedAt). user.Password must already be hashed.
//
// A unique violation on login is reported as [ErrLoginAlreadyExists].
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildCreateUserQuery(r.db.builder, user, time.Now().UTC())
	if err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error building query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var created models.User
	err = r.db.retry(ctx, func() error {
		var scanErr error
		created, scanErr = scanUser(r.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error creating user")
		if isUniqueViolation(err) {
			return models.User{}, ErrLoginAlreadyExists
		}
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return created, nil
}

// FindUserByLogin retrieves the user with the given login, including its
// password hash. A missing user is reported as [ErrUserNotFound].
func (r *userRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindUserByLoginQuery(r.db.builder, login)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.FindUserByLogin").Msg("error building query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var found models.User
	err = r.db.retry(ctx, func() error {
		var scanErr error
		found, scanErr = scanUser(r.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*userRepository.FindUserByLogin").Msg("error finding user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return found, nil
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user      models.User
		createdAt scanTime
	)
	if err := row.Scan(&user.UserID, &user.Login, &user.Name, &user.Password, &createdAt); err != nil {
		return models.User{}, err
	}
	user.CreatedAt = createdAt.Time
	return user, nil
}

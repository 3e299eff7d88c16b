package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/crypto"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

// authService is the concrete implementation of AuthService.
// It handles user registration, credential verification, and JWT token
// lifecycle using a UserRepository for persistence.
//
// Passwords are peppered with an HMAC-SHA256 under hashKey and the hex digest
// is then hashed with bcrypt, which keeps the bcrypt input under its 72 byte
// limit.
type authService struct {
	// userRepository is the data-access layer used to create and look up users.
	userRepository store.UserRepository

	// passwordHasher produces and verifies the stored password hashes.
	passwordHasher crypto.PasswordHasher

	// hashKey is the HMAC secret used as a pepper. Must match the value used
	// at registration time.
	hashKey string

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	// logger is the structured logger used for diagnostic and error output.
	logger *logger.Logger
}

// NewAuthService constructs a new AuthService wired to the given UserRepository
// and populated with security parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only after
// construction.
func NewAuthService(userRepository store.UserRepository, passwordHasher crypto.PasswordHasher, cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		userRepository: userRepository,
		passwordHasher: passwordHasher,
		hashKey:        cfg.PasswordHashKey,
		tokenSignKey:   cfg.TokenSignKey,
		tokenIssuer:    cfg.TokenIssuer,
		tokenDuration:  cfg.TokenDuration,
		logger:         logger,
	}
}

// RegisterUser creates a new user account.
//
// Returns the persisted user (with a server-assigned UserID and no password)
// or:
//   - ErrInvalidDataProvided if Login or Password is empty.
//   - A wrapped storage error if the repository call fails (e.g. login already
//     taken, see store.ErrLoginAlreadyExists).
func (a *authService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	if user.Login == "" || user.Password == "" {
		log.Debug().Str("login", user.Login).Msg("invalid user data provided")
		return models.User{}, ErrInvalidDataProvided
	}

	hash, err := a.passwordHasher.Hash(a.pepper(user.Password))
	if err != nil {
		log.Err(err).Str("login", user.Login).Msg("password hashing failed")
		return models.User{}, fmt.Errorf("password hashing failed: %w", err)
	}
	user.Password = hash

	registeredUser, err := a.userRepository.CreateUser(ctx, user)
	if err != nil {
		if !errors.Is(err, store.ErrLoginAlreadyExists) {
			log.Err(err).Str("login", user.Login).Msg("user creation ended with error")
		}
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	registeredUser.Password = ""
	return registeredUser, nil
}

// Login authenticates an existing user.
//
// Returns the authenticated user record or:
//   - ErrInvalidDataProvided if Login or Password is empty.
//   - A wrapped storage error if the repository lookup fails (e.g. user not
//     found, see store.ErrUserNotFound).
//   - ErrWrongPassword if the password does not match.
func (a *authService) Login(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	if user.Login == "" || user.Password == "" {
		log.Debug().Str("login", user.Login).Msg("invalid user data provided")
		return models.User{}, ErrInvalidDataProvided
	}

	foundUser, err := a.userRepository.FindUserByLogin(ctx, user.Login)
	if err != nil {
		log.Debug().Err(err).Str("login", user.Login).Msg("user search by login failed")
		return models.User{}, fmt.Errorf("user search by login failed: %w", err)
	}

	if !a.passwordHasher.Compare(foundUser.Password, a.pepper(user.Password)) {
		log.Debug().
			Int64("id", foundUser.UserID).
			Str("login", foundUser.Login).
			Msg("wrong password")
		return models.User{}, ErrWrongPassword
	}

	foundUser.Password = ""
	return foundUser, nil
}

// CreateToken issues a signed JWT for the given user.
//
// The token is signed with the configured tokenSignKey, carries the configured
// tokenIssuer as the "iss" claim, and expires after tokenDuration.
func (a *authService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	token, err := utils.GenerateJWTToken(a.tokenIssuer, user.UserID, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken validates and parses a raw JWT string.
//
// Any validation failure (expired, wrong issuer, malformed) is normalised to
// ErrTokenIsExpiredOrInvalid so that callers do not need to inspect low-level
// JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}

func (a *authService) pepper(password string) string {
	return utils.HashString(password, a.hashKey)
}

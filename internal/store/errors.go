package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrLoginAlreadyExists is returned when registering a user whose login
	// is already taken.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrUserNotFound is returned when no user matches the requested login.
	ErrUserNotFound = errors.New("user was not found")

	// ErrAccountNotFound is returned when an account lookup scoped to a user
	// yields nothing.
	ErrAccountNotFound = errors.New("cloud account was not found")

	// ErrEntryNotFound is returned when an entry does not exist or belongs to
	// another user.
	ErrEntryNotFound = errors.New("vfs entry was not found")

	// ErrEntryAlreadyExists is returned when a user already has an entry at
	// the requested path.
	ErrEntryAlreadyExists = errors.New("vfs entry already exists at path")

	// ErrShareLinkNotFound is returned when a share link does not exist or
	// belongs to another user.
	ErrShareLinkNotFound = errors.New("share link was not found")

	// ErrShareLinkCollision is returned when a freshly generated token or slug
	// collides with an existing one.
	ErrShareLinkCollision = errors.New("share link token or slug collision")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	ErrBuildingSQLQuery     = errors.New("error building sql query")
	ErrExecutingQuery       = errors.New("error executing sql query")
	ErrBeginningTransaction = errors.New("failed to begin transaction")
	ErrCommitingTransaction = errors.New("failed to commit transaction")
	ErrExecutingStatement   = errors.New("failed to execute statement")
	ErrScanningRow          = errors.New("failed to scan row")
	ErrScanningRows         = errors.New("failed to scan rows")
	ErrUnsupportedDSN       = errors.New("unsupported database DSN")
)

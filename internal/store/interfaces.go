package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-drive-pool/models"
)

// UserRepository persists application users.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// AccountRepository persists linked provider accounts and their capacity
// ledger counters. Implementations keep credentials encrypted at rest.
type AccountRepository interface {
	// Upsert inserts an account or, when the (user, provider, email) triple
	// already exists, refreshes its credentials and quota and reactivates it.
	// The ledger's used storage of an existing account is left untouched.
	Upsert(ctx context.Context, account models.Account) (models.Account, error)
	Get(ctx context.Context, userID, accountID int64) (models.Account, error)
	List(ctx context.Context, userID int64) ([]models.Account, error)
	ListActive(ctx context.Context, userID int64, provider models.Provider) ([]models.Account, error)
	ListAllActive(ctx context.Context, provider models.Provider) ([]models.Account, error)
	UpdateCredentials(ctx context.Context, accountID int64, token models.OAuthToken) error
	UpdateQuota(ctx context.Context, accountID int64, total int64) error
	SetRootFolder(ctx context.Context, accountID int64, folderID string) error
	Deactivate(ctx context.Context, userID, accountID int64) error

	// Reserve atomically adds bytes to used storage only if the account is
	// active and the result does not exceed total storage. It reports whether
	// the reservation was made.
	Reserve(ctx context.Context, accountID int64, bytes int64) (bool, error)
	// Increment adds bytes to used storage of an active account.
	Increment(ctx context.Context, accountID int64, bytes int64) error
	// Decrement subtracts bytes from used storage, clamping at zero.
	Decrement(ctx context.Context, accountID int64, bytes int64) error
	// Aggregate sums total and used storage over the user's active accounts.
	Aggregate(ctx context.Context, userID int64, provider models.Provider) (models.StorageTotals, error)
}

// EntryRepository persists the virtual filesystem index.
type EntryRepository interface {
	Create(ctx context.Context, entry models.Entry) (models.Entry, error)
	Get(ctx context.Context, userID, entryID int64) (models.Entry, error)
	GetByPath(ctx context.Context, userID int64, path string) (models.Entry, error)
	// ListChildren returns direct children of parentID (nil for root),
	// folders first, then by name.
	ListChildren(ctx context.Context, userID int64, parentID *int64) ([]models.Entry, error)
	// ListChildrenOf returns direct children of any of parentIDs.
	ListChildrenOf(ctx context.Context, userID int64, parentIDs []int64) ([]models.Entry, error)
	// DeleteTree removes rootID, its descendants and their share links, and
	// releases the deleted files' bytes from the accounts' ledgers, all in one
	// transaction. It returns the releases applied.
	DeleteTree(ctx context.Context, userID, rootID int64) ([]models.LedgerRelease, error)
	Counts(ctx context.Context, userID int64) (models.EntryCounts, error)
}

// ShareLinkRepository persists public share links.
type ShareLinkRepository interface {
	Create(ctx context.Context, link models.ShareLink) (models.ShareLink, error)
	FindValidByEntry(ctx context.Context, userID, entryID int64, now time.Time) (models.ShareLink, error)
	// FindBySlug returns the link with its target entry regardless of
	// whether the link is still valid.
	FindBySlug(ctx context.Context, slug string) (models.ShareLink, error)
	ListByUser(ctx context.Context, userID int64) ([]models.ShareLink, error)
	Delete(ctx context.Context, userID, linkID int64) error
	IncrementViews(ctx context.Context, linkID int64) error
	IncrementDownloads(ctx context.Context, linkID int64) error
	SetExpiry(ctx context.Context, linkID int64, expiresAt *time.Time) error
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-drive-pool/models"
)

type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetAppInfo(ctx context.Context) models.VersionResponse
}

// LedgerService is the capacity ledger: per-account used byte counters and
// their aggregation across a user's active accounts.
type LedgerService interface {
	Increment(ctx context.Context, accountID int64, bytes int64) error
	Decrement(ctx context.Context, accountID int64, bytes int64) error
	// Reserve atomically claims bytes on an account if they still fit.
	Reserve(ctx context.Context, accountID int64, bytes int64) (bool, error)
	Totals(ctx context.Context, userID int64) (models.StorageTotals, error)
}

// BalancerService picks the backing account that receives a new file.
type BalancerService interface {
	// SelectAccount returns the active account with the most available
	// space that can hold size bytes. Accounts listed in exclude are skipped.
	SelectAccount(ctx context.Context, userID int64, size int64, exclude ...int64) (models.Account, error)
}

// VFSService is the virtual filesystem index.
type VFSService interface {
	// List returns the direct children of path, folders first, then by name.
	// A path that does not resolve to a folder yields an empty listing.
	List(ctx context.Context, userID int64, path string) ([]models.Entry, error)
	Get(ctx context.Context, userID, entryID int64) (models.Entry, error)
	// ResolveFolder returns the folder at path, or nil for the root.
	ResolveFolder(ctx context.Context, userID int64, path string) (*models.Entry, error)
	// FolderByID returns the folder with the given id, or nil when id is nil.
	FolderByID(ctx context.Context, userID int64, id *int64) (*models.Entry, error)
	CreateEntry(ctx context.Context, userID int64, entry models.NewEntry) (models.Entry, error)
	CreateFolder(ctx context.Context, userID int64, name string, parentID *int64, accountID int64) (models.Entry, error)
	// Subtree returns entryID and all its descendants in post-order.
	Subtree(ctx context.Context, userID, entryID int64) ([]models.Entry, error)
	// DeleteEntry removes entryID and its descendants from the index in one
	// transaction and returns the deleted files' bytes to their accounts.
	DeleteEntry(ctx context.Context, userID, entryID int64) error
}

// ShareService issues and resolves public share links.
type ShareService interface {
	Create(ctx context.Context, userID int64, request models.CreateShareRequest) (models.ShareLink, error)
	// Resolve returns the link behind slug. A link that exists but is no
	// longer valid yields ErrShareLinkExpired.
	Resolve(ctx context.Context, slug string) (models.ShareLink, error)
	// Authorize checks password against a password protected link.
	Authorize(link models.ShareLink, password string) error
	RecordView(ctx context.Context, link models.ShareLink)
	RecordDownload(ctx context.Context, link models.ShareLink)
	Revoke(ctx context.Context, userID, linkID int64) error
	List(ctx context.Context, userID int64) ([]models.ShareLink, error)
	// Expire sets the link's expiry, nil clears it.
	Expire(ctx context.Context, linkID int64, expiresAt *time.Time) error

	OwnerView(link models.ShareLink) models.ShareLinkView
	PublicView(link models.ShareLink) models.PublicShareView
}

// AccountService links provider accounts and keeps their credentials usable.
type AccountService interface {
	AuthURL(ctx context.Context, userID int64) (string, error)
	LinkAccount(ctx context.Context, userID int64, code string) (models.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]models.Account, error)
	UnlinkAccount(ctx context.Context, userID, accountID int64) error
	// EnsureFreshCredentials refreshes an expired access token. A revoked
	// grant deactivates the account and yields ErrReauthorizationRequired.
	EnsureFreshCredentials(ctx context.Context, account models.Account) (models.Account, error)
	// SyncQuota refreshes the account's total storage from the provider.
	SyncQuota(ctx context.Context, account models.Account) error
	// EnsureRootFolder creates the account's isolation folder if it has none.
	EnsureRootFolder(ctx context.Context, account models.Account) (models.Account, error)
	ListAllActive(ctx context.Context) ([]models.Account, error)
}

// FileService orchestrates the balancer, the object store, the index and the
// ledger for every file operation.
type FileService interface {
	Upload(ctx context.Context, userID int64, upload models.FileUpload) (models.Entry, error)
	Download(ctx context.Context, userID, entryID int64) (models.FileContent, error)
	// Open streams the bytes of a file entry regardless of its owner.
	Open(ctx context.Context, entry models.Entry) (models.FileContent, error)
	Delete(ctx context.Context, userID, entryID int64) error
	CreateFolder(ctx context.Context, userID int64, request models.CreateFolderRequest) (models.Entry, error)
}

type StatsService interface {
	Stats(ctx context.Context, userID int64) (models.StorageStats, error)
	AccountsUsage(ctx context.Context, userID int64) ([]models.AccountUsage, error)
}

// FileServiceWrapper decorates a FileService, for example with validation.
type FileServiceWrapper interface {
	Wrap(FileService) FileService
}

// ShareServiceWrapper decorates a ShareService.
type ShareServiceWrapper interface {
	Wrap(ShareService) ShareService
}

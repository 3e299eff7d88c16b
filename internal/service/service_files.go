// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-drive-pool/internal/adapter"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/models"
)

const (
	// reserveAttempts bounds how often an upload re-runs account selection
	// after losing a reservation race.
	reserveAttempts = 3

	defaultMimeType = "application/octet-stream"
)

// fileService ties together account selection, the capacity ledger, the
// object store and the index. Ledger changes made for an upload are undone
// whenever the upload does not end up indexed.
type fileService struct {
	balancer BalancerService
	ledger   LedgerService
	vfs      VFSService
	accounts AccountService

	accountRepository store.AccountRepository
	objectStore       adapter.ObjectStore

	logger *logger.Logger
}

func NewFileService(balancer BalancerService, ledger LedgerService, vfs VFSService, accounts AccountService,
	accountRepository store.AccountRepository, objectStore adapter.ObjectStore, logger *logger.Logger) FileService {
	return &fileService{
		balancer:          balancer,
		ledger:            ledger,
		vfs:               vfs,
		accounts:          accounts,
		accountRepository: accountRepository,
		objectStore:       objectStore,
		logger:            logger,
	}
}

func (f *fileService) Upload(ctx context.Context, userID int64, upload models.FileUpload) (models.Entry, error) {
	log := logger.FromContext(ctx)

	parent, err := f.uploadParent(ctx, userID, upload)
	if err != nil {
		return models.Entry{}, err
	}
	var parentID *int64
	if parent != nil {
		parentID = &parent.ID
	}

	account, err := f.reserve(ctx, userID, upload.Size)
	if err != nil {
		return models.Entry{}, err
	}
	reserved := upload.Size

	// release runs on a context that outlives a cancelled request so the
	// reservation is never leaked.
	release := func() {
		if err := f.ledger.Decrement(context.WithoutCancel(ctx), account.ID, reserved); err != nil {
			log.Error().Err(err).Int64("account_id", account.ID).Int64("bytes", reserved).Msg("could not release reservation")
		}
	}

	if account, err = f.accounts.EnsureFreshCredentials(ctx, account); err != nil {
		release()
		return models.Entry{}, err
	}
	if account, err = f.accounts.EnsureRootFolder(ctx, account); err != nil {
		release()
		return models.Entry{}, err
	}

	mimeType := upload.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	remote, err := f.objectStore.Upload(ctx, account.AccessToken, models.UploadObject{
		Name:     upload.Name,
		MimeType: mimeType,
		Size:     upload.Size,
		ParentID: account.RootFolderID,
		Content:  upload.Content,
	})
	if err != nil {
		release()
		log.Err(err).Int64("account_id", account.ID).Str("name", upload.Name).Msg("remote upload failed")
		return models.Entry{}, remoteError(err)
	}

	size := upload.Size
	if remote.Size > 0 && remote.Size != size {
		log.Warn().Int64("declared", size).Int64("stored", remote.Size).Msg("stored size differs from declared size")
		if err = f.adjustReservation(ctx, account.ID, size, remote.Size); err == nil {
			size, reserved = remote.Size, remote.Size
		}
	}
	if remote.MimeType != "" {
		mimeType = remote.MimeType
	}

	entry, err := f.vfs.CreateEntry(ctx, userID, models.NewEntry{
		ParentID:  parentID,
		AccountID: account.ID,
		Name:      upload.Name,
		MimeType:  mimeType,
		Size:      size,
		RemoteID:  remote.ID,
		Metadata:  remoteMetadata(remote),
	})
	if err != nil {
		if deleteErr := f.objectStore.Delete(context.WithoutCancel(ctx), account.AccessToken, remote.ID); deleteErr != nil {
			log.Warn().Err(deleteErr).Str("remote_id", remote.ID).Msg("could not remove orphaned remote object")
		}
		release()
		return models.Entry{}, err
	}

	log.Info().
		Int64("entry_id", entry.ID).
		Int64("account_id", account.ID).
		Int64("size", size).
		Msg("file uploaded")
	return entry, nil
}

func (f *fileService) Download(ctx context.Context, userID, entryID int64) (models.FileContent, error) {
	entry, err := f.vfs.Get(ctx, userID, entryID)
	if err != nil {
		return models.FileContent{}, err
	}
	return f.Open(ctx, entry)
}

func (f *fileService) Open(ctx context.Context, entry models.Entry) (models.FileContent, error) {
	remoteID, ok := entry.RemoteObjectID()
	if !ok {
		return models.FileContent{}, ErrNotAFile
	}

	account, err := f.usableAccount(ctx, entry.UserID, entry.AccountID)
	if err != nil {
		return models.FileContent{}, err
	}

	content, err := f.objectStore.GetContent(ctx, account.AccessToken, remoteID)
	if err != nil {
		logger.FromContext(ctx).Err(err).Int64("entry_id", entry.ID).Msg("error opening remote content")
		return models.FileContent{}, remoteError(err)
	}

	mimeType := entry.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	return models.FileContent{
		Name:     entry.Name,
		MimeType: mimeType,
		Size:     entry.Size,
		Content:  content,
	}, nil
}

// Delete removes an entry and everything below it. Remote deletes are best
// effort: a failure is logged and the index rows are removed regardless.
func (f *fileService) Delete(ctx context.Context, userID, entryID int64) error {
	log := logger.FromContext(ctx)

	entries, err := f.vfs.Subtree(ctx, userID, entryID)
	if err != nil {
		return err
	}

	accounts := make(map[int64]*models.Account)
	for _, entry := range entries {
		remoteID, ok := entry.RemoteObjectID()
		if !ok {
			continue
		}

		account, seen := accounts[entry.AccountID]
		if !seen {
			if usable, err := f.usableAccount(ctx, userID, entry.AccountID); err != nil {
				log.Warn().Err(err).Int64("account_id", entry.AccountID).Msg("skipping remote deletes for account")
			} else {
				account = &usable
			}
			accounts[entry.AccountID] = account
		}
		if account == nil {
			continue
		}

		err := f.objectStore.Delete(ctx, account.AccessToken, remoteID)
		if err != nil && !errors.Is(err, adapter.ErrNotFound) {
			log.Warn().Err(err).
				Int64("entry_id", entry.ID).
				Str("remote_id", remoteID).
				Msg("remote delete failed, removing index entry anyway")
		}
	}

	if err = f.vfs.DeleteEntry(ctx, userID, entryID); err != nil {
		return err
	}

	log.Info().Int64("entry_id", entryID).Int("removed", len(entries)).Msg("entry deleted")
	return nil
}

// CreateFolder adds a folder to the index only. Folders are attributed to the
// user's first active account.
func (f *fileService) CreateFolder(ctx context.Context, userID int64, request models.CreateFolderRequest) (models.Entry, error) {
	if _, err := f.vfs.FolderByID(ctx, userID, request.ParentID); err != nil {
		return models.Entry{}, err
	}

	accounts, err := f.accountRepository.ListActive(ctx, userID, models.ProviderGoogle)
	if err != nil {
		return models.Entry{}, fmt.Errorf("error listing active accounts: %w", err)
	}
	if len(accounts) == 0 {
		return models.Entry{}, ErrNoAccounts
	}

	return f.vfs.CreateFolder(ctx, userID, request.Name, request.ParentID, accounts[0].ID)
}

func (f *fileService) uploadParent(ctx context.Context, userID int64, upload models.FileUpload) (*models.Entry, error) {
	if upload.ParentID != nil {
		return f.vfs.FolderByID(ctx, userID, upload.ParentID)
	}
	return f.vfs.ResolveFolder(ctx, userID, upload.Path)
}

// reserve selects an account and claims size bytes on it. Losing the claim
// to a concurrent upload moves on to the next best account.
func (f *fileService) reserve(ctx context.Context, userID int64, size int64) (models.Account, error) {
	var tried []int64
	for range reserveAttempts {
		account, err := f.balancer.SelectAccount(ctx, userID, size, tried...)
		if err != nil {
			if len(tried) > 0 && errors.Is(err, ErrInsufficientCapacity) {
				return models.Account{}, fmt.Errorf("%w: %w", ErrCapacityContention, err)
			}
			return models.Account{}, err
		}

		ok, err := f.ledger.Reserve(ctx, account.ID, size)
		if err != nil {
			return models.Account{}, err
		}
		if ok {
			return account, nil
		}

		logger.FromContext(ctx).Debug().Int64("account_id", account.ID).Msg("reservation lost, reselecting")
		tried = append(tried, account.ID)
	}

	return models.Account{}, ErrCapacityContention
}

func (f *fileService) adjustReservation(ctx context.Context, accountID, declared, stored int64) error {
	if stored > declared {
		return f.ledger.Increment(ctx, accountID, stored-declared)
	}
	return f.ledger.Decrement(ctx, accountID, declared-stored)
}

// usableAccount loads an account and refreshes its credentials. Inactive
// accounts cannot serve content until they are linked again.
func (f *fileService) usableAccount(ctx context.Context, userID, accountID int64) (models.Account, error) {
	account, err := f.accountRepository.Get(ctx, userID, accountID)
	if err != nil {
		return models.Account{}, fmt.Errorf("error getting account: %w", err)
	}
	if !account.IsActive {
		return models.Account{}, ErrReauthorizationRequired
	}
	return f.accounts.EnsureFreshCredentials(ctx, account)
}

func remoteMetadata(remote models.RemoteObject) models.EntryMetadata {
	metadata := models.EntryMetadata{}
	if remote.WebViewLink != "" {
		metadata[models.MetadataWebViewLink] = remote.WebViewLink
	}
	if remote.WebContentLink != "" {
		metadata[models.MetadataWebContentLink] = remote.WebContentLink
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

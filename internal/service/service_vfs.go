// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/models"
)

// vfsService maintains each user's logical directory tree. Folders exist only
// as index rows; files point at a remote object on exactly one account.
type vfsService struct {
	entryRepository store.EntryRepository

	logger *logger.Logger
}

func NewVFSService(entryRepository store.EntryRepository, logger *logger.Logger) VFSService {
	return &vfsService{
		entryRepository: entryRepository,
		logger:          logger,
	}
}

func (v *vfsService) List(ctx context.Context, userID int64, path string) ([]models.Entry, error) {
	path = NormalizePath(path)

	var parentID *int64
	if path != models.RootPath {
		folder, err := v.entryRepository.GetByPath(ctx, userID, path)
		if errors.Is(err, store.ErrEntryNotFound) {
			logger.FromContext(ctx).Debug().Str("path", path).Msg("listing missing folder")
			return []models.Entry{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error resolving path: %w", err)
		}
		if !folder.IsFolder {
			return []models.Entry{}, nil
		}
		parentID = &folder.ID
	}

	entries, err := v.entryRepository.ListChildren(ctx, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("error listing folder: %w", err)
	}
	if entries == nil {
		entries = []models.Entry{}
	}

	return entries, nil
}

func (v *vfsService) Get(ctx context.Context, userID, entryID int64) (models.Entry, error) {
	entry, err := v.entryRepository.Get(ctx, userID, entryID)
	if err != nil {
		return models.Entry{}, fmt.Errorf("error getting entry: %w", err)
	}
	return entry, nil
}

func (v *vfsService) ResolveFolder(ctx context.Context, userID int64, path string) (*models.Entry, error) {
	path = NormalizePath(path)
	if path == models.RootPath {
		return nil, nil
	}

	folder, err := v.entryRepository.GetByPath(ctx, userID, path)
	if err != nil {
		return nil, fmt.Errorf("error resolving folder %q: %w", path, err)
	}
	if !folder.IsFolder {
		return nil, ErrNotAFolder
	}

	return &folder, nil
}

func (v *vfsService) FolderByID(ctx context.Context, userID int64, id *int64) (*models.Entry, error) {
	if id == nil {
		return nil, nil
	}

	folder, err := v.entryRepository.Get(ctx, userID, *id)
	if err != nil {
		return nil, fmt.Errorf("error getting folder: %w", err)
	}
	if !folder.IsFolder {
		return nil, ErrNotAFolder
	}

	return &folder, nil
}

// CreateEntry indexes an uploaded file under entry.ParentID. The caller has
// already checked that the parent is a folder owned by userID.
func (v *vfsService) CreateEntry(ctx context.Context, userID int64, entry models.NewEntry) (models.Entry, error) {
	parentPath, err := v.parentPath(ctx, userID, entry.ParentID)
	if err != nil {
		return models.Entry{}, err
	}

	remoteID := entry.RemoteID
	created, err := v.entryRepository.Create(ctx, models.Entry{
		UserID:    userID,
		AccountID: entry.AccountID,
		ParentID:  entry.ParentID,
		Name:      entry.Name,
		Path:      JoinPath(parentPath, entry.Name),
		MimeType:  entry.MimeType,
		Size:      entry.Size,
		RemoteID:  &remoteID,
		Metadata:  entry.Metadata,
	})
	if err != nil {
		return models.Entry{}, fmt.Errorf("error creating entry: %w", err)
	}

	return created, nil
}

func (v *vfsService) CreateFolder(ctx context.Context, userID int64, name string, parentID *int64, accountID int64) (models.Entry, error) {
	parentPath, err := v.parentPath(ctx, userID, parentID)
	if err != nil {
		return models.Entry{}, err
	}

	created, err := v.entryRepository.Create(ctx, models.Entry{
		UserID:    userID,
		AccountID: accountID,
		ParentID:  parentID,
		IsFolder:  true,
		Name:      name,
		Path:      JoinPath(parentPath, name),
	})
	if err != nil {
		return models.Entry{}, fmt.Errorf("error creating folder: %w", err)
	}

	return created, nil
}

// Subtree walks the tree breadth first and returns the levels deepest first,
// so every entry comes after all of its descendants and entryID comes last.
func (v *vfsService) Subtree(ctx context.Context, userID, entryID int64) ([]models.Entry, error) {
	root, err := v.entryRepository.Get(ctx, userID, entryID)
	if err != nil {
		return nil, fmt.Errorf("error getting entry: %w", err)
	}

	levels := [][]models.Entry{{root}}
	for frontier := folderIDs(levels[0]); len(frontier) > 0; {
		children, err := v.entryRepository.ListChildrenOf(ctx, userID, frontier)
		if err != nil {
			return nil, fmt.Errorf("error collecting subtree: %w", err)
		}
		if len(children) == 0 {
			break
		}
		levels = append(levels, children)
		frontier = folderIDs(children)
	}

	var entries []models.Entry
	for i := len(levels) - 1; i >= 0; i-- {
		entries = append(entries, levels[i]...)
	}

	return entries, nil
}

func (v *vfsService) DeleteEntry(ctx context.Context, userID, entryID int64) error {
	releases, err := v.entryRepository.DeleteTree(ctx, userID, entryID)
	if errors.Is(err, store.ErrEntryNotFound) {
		return fmt.Errorf("error getting entry: %w", err)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Int64("user_id", userID).
			Int64("entry_id", entryID).
			Msg("error removing entries")
		return fmt.Errorf("error removing entries: %w", err)
	}

	for _, release := range releases {
		logger.FromContext(ctx).Debug().
			Int64("account_id", release.AccountID).
			Int64("bytes", release.Bytes).
			Msg("released storage")
	}

	return nil
}

func (v *vfsService) parentPath(ctx context.Context, userID int64, parentID *int64) (string, error) {
	if parentID == nil {
		return models.RootPath, nil
	}

	parent, err := v.entryRepository.Get(ctx, userID, *parentID)
	if err != nil {
		return "", fmt.Errorf("error getting parent folder: %w", err)
	}
	if !parent.IsFolder {
		return "", ErrNotAFolder
	}

	return parent.Path, nil
}

func folderIDs(entries []models.Entry) []int64 {
	var ids []int64
	for _, entry := range entries {
		if entry.IsFolder {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}

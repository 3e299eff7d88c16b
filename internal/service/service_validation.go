package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-drive-pool/internal/validators"
	"github.com/MKhiriev/go-drive-pool/models"
)

// FileValidationService rejects malformed file requests before they reach
// the wrapped FileService.
type FileValidationService struct {
	inner     FileService
	validator validators.Validator
}

func NewFileValidationService(validator validators.Validator) FileServiceWrapper {
	return &FileValidationService{validator: validator}
}

func (v *FileValidationService) Upload(ctx context.Context, userID int64, upload models.FileUpload) (models.Entry, error) {
	if err := v.validator.Validate(ctx, upload); err != nil {
		return models.Entry{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	return v.inner.Upload(ctx, userID, upload)
}

func (v *FileValidationService) Download(ctx context.Context, userID, entryID int64) (models.FileContent, error) {
	return v.inner.Download(ctx, userID, entryID)
}

func (v *FileValidationService) Open(ctx context.Context, entry models.Entry) (models.FileContent, error) {
	return v.inner.Open(ctx, entry)
}

func (v *FileValidationService) Delete(ctx context.Context, userID, entryID int64) error {
	return v.inner.Delete(ctx, userID, entryID)
}

func (v *FileValidationService) CreateFolder(ctx context.Context, userID int64, request models.CreateFolderRequest) (models.Entry, error) {
	if err := v.validator.Validate(ctx, request); err != nil {
		return models.Entry{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	return v.inner.CreateFolder(ctx, userID, request)
}

func (v *FileValidationService) Wrap(inner FileService) FileService {
	v.inner = inner
	return v
}

// ShareValidationService checks share link options before the wrapped
// ShareService creates a link.
type ShareValidationService struct {
	ShareService
	validator validators.Validator
}

func NewShareValidationService(validator validators.Validator) ShareServiceWrapper {
	return &ShareValidationService{validator: validator}
}

func (v *ShareValidationService) Create(ctx context.Context, userID int64, request models.CreateShareRequest) (models.ShareLink, error) {
	if err := v.validator.Validate(ctx, request); err != nil {
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	return v.ShareService.Create(ctx, userID, request)
}

func (v *ShareValidationService) Wrap(inner ShareService) ShareService {
	v.ShareService = inner
	return v
}

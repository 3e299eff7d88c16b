package validators

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/MKhiriev/go-drive-pool/models"
)

// Field name constants used to restrict validation to a subset of fields.
const (
	FieldLogin    = "login"
	FieldPassword = "password"

	// FieldName targets the name of a folder or an uploaded file.
	FieldName     = "name"
	FieldParentID = "parent_id"

	// FieldLocation checks that an upload addresses its folder either by id
	// or by path, never both.
	FieldLocation = "location"
	FieldSize     = "size"
	FieldContent  = "content"

	FieldFileID        = "file_id"
	FieldExpiresIn     = "expires_in"
	FieldSharePassword = "share_password"

	FieldCode = "code"
)

const (
	// MaxNameLength is the longest file or folder name accepted, in characters.
	MaxNameLength = 255

	// MinSharePasswordLength is the shortest password a share link may carry.
	MinSharePasswordLength = 4

	// MaxShareExpiryHours is the longest lifetime a share link may be given,
	// ten years.
	MaxShareExpiryHours = 10 * 365 * 24
)

// RequestValidator checks inbound API requests before they reach the
// services.
type RequestValidator struct {
	maxUploadSize int64
}

// NewRequestValidator returns a Validator for API requests. A positive
// maxUploadSize rejects larger uploads.
func NewRequestValidator(maxUploadSize int64) Validator {
	return &RequestValidator{maxUploadSize: maxUploadSize}
}

func (v *RequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.User:
		return v.validateUser(ctx, value, fields...)
	case *models.User:
		return v.validateUser(ctx, *value, fields...)

	case models.CreateFolderRequest:
		return v.validateCreateFolder(ctx, value, fields...)
	case *models.CreateFolderRequest:
		return v.validateCreateFolder(ctx, *value, fields...)

	case models.FileUpload:
		return v.validateFileUpload(ctx, value, fields...)
	case *models.FileUpload:
		return v.validateFileUpload(ctx, *value, fields...)

	case models.CreateShareRequest:
		return v.validateCreateShare(ctx, value, fields...)
	case *models.CreateShareRequest:
		return v.validateCreateShare(ctx, *value, fields...)

	case models.LinkAccountRequest:
		return v.validateLinkAccount(ctx, value, fields...)
	case *models.LinkAccountRequest:
		return v.validateLinkAccount(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *RequestValidator) validateUser(ctx context.Context, user models.User, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldLogin, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldLogin:
			if strings.TrimSpace(user.Login) == "" {
				return ErrEmptyLogin
			}
		case FieldPassword:
			if user.Password == "" {
				return ErrEmptyPassword
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RequestValidator) validateCreateFolder(ctx context.Context, request models.CreateFolderRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldName, FieldParentID}
	}

	for _, f := range fields {
		switch f {
		case FieldName:
			if err := ValidateName(request.Name); err != nil {
				return err
			}
		case FieldParentID:
			if request.ParentID != nil && *request.ParentID <= 0 {
				return ErrInvalidParentID
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RequestValidator) validateFileUpload(ctx context.Context, upload models.FileUpload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldName, FieldParentID, FieldLocation, FieldSize, FieldContent}
	}

	for _, f := range fields {
		switch f {
		case FieldName:
			if err := ValidateName(upload.Name); err != nil {
				return err
			}
		case FieldParentID:
			if upload.ParentID != nil && *upload.ParentID <= 0 {
				return ErrInvalidParentID
			}
		case FieldLocation:
			if upload.ParentID != nil && strings.Trim(strings.TrimSpace(upload.Path), "/") != "" {
				return ErrConflictingLocation
			}
		case FieldSize:
			if upload.Size < 0 {
				return ErrInvalidSize
			}
			if v.maxUploadSize > 0 && upload.Size > v.maxUploadSize {
				return ErrFileTooLarge
			}
		case FieldContent:
			if upload.Content == nil {
				return ErrEmptyContent
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RequestValidator) validateCreateShare(ctx context.Context, request models.CreateShareRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldFileID, FieldExpiresIn, FieldSharePassword}
	}

	for _, f := range fields {
		switch f {
		case FieldFileID:
			if request.FileID <= 0 {
				return ErrInvalidFileID
			}
		case FieldExpiresIn:
			if request.ExpiresInHours != nil && *request.ExpiresInHours < 1 {
				return ErrInvalidExpiry
			}
			if request.ExpiresInHours != nil && *request.ExpiresInHours > MaxShareExpiryHours {
				return ErrExpiryTooLong
			}
		case FieldSharePassword:
			if request.Password != nil && *request.Password != "" &&
				utf8.RuneCountInString(*request.Password) < MinSharePasswordLength {
				return ErrPasswordTooShort
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RequestValidator) validateLinkAccount(ctx context.Context, request models.LinkAccountRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldCode}
	}

	for _, f := range fields {
		switch f {
		case FieldCode:
			if strings.TrimSpace(request.Code) == "" {
				return ErrEmptyAuthCode
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// ValidateName checks a single path segment: non-blank, no surrounding
// whitespace, no slash, not a dot segment and at most MaxNameLength
// characters. Surrounding whitespace would not survive path normalization.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "", trimmed == ".", trimmed == "..":
		return ErrInvalidName
	case trimmed != name:
		return ErrInvalidName
	case strings.ContainsAny(name, "/\x00"):
		return ErrInvalidName
	case utf8.RuneCountInString(name) > MaxNameLength:
		return ErrNameTooLong
	}
	return nil
}

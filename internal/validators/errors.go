package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyLogin          = errors.New("login is required")
	ErrEmptyPassword       = errors.New("password is required")
	ErrInvalidName         = errors.New("invalid name")
	ErrNameTooLong         = errors.New("name is too long")
	ErrInvalidParentID     = errors.New("invalid parent id")
	ErrInvalidFileID       = errors.New("invalid file id")
	ErrInvalidExpiry       = errors.New("expires_in must be at least 1 hour")
	ErrExpiryTooLong       = errors.New("expires_in must not exceed ten years")
	ErrPasswordTooShort    = errors.New("share password is too short")
	ErrInvalidSize         = errors.New("invalid file size")
	ErrFileTooLarge        = errors.New("file exceeds maximum upload size")
	ErrEmptyContent        = errors.New("file content is required")
	ErrEmptyAuthCode       = errors.New("authorization code is required")
	ErrConflictingLocation = errors.New("only one of parent_id and path may be set")
)

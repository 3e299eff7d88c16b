package service

import "errors"

var (
	ErrInvalidDataProvided     = errors.New("invalid data provided")
	ErrWrongPassword           = errors.New("wrong password")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrVersionIsNotSpecified   = errors.New("app version is not specified")
)

// Capacity errors. Both are expected conditions the user can resolve by
// linking another account or freeing space.
var (
	ErrNoAccounts           = errors.New("no linked storage accounts, link a Google Drive account first")
	ErrInsufficientCapacity = errors.New("insufficient storage capacity")
	ErrCapacityContention   = errors.New("could not reserve storage capacity, try again")
)

// Virtual filesystem errors.
var (
	ErrNotAFile   = errors.New("entry is not a file")
	ErrNotAFolder = errors.New("entry is not a folder")
)

// Share link errors.
var (
	ErrShareLinkExpired      = errors.New("share link has expired")
	ErrSharePasswordRequired = errors.New("share link is password protected")
	ErrSharePasswordInvalid  = errors.New("wrong share link password")
)

// Provider errors.
var (
	ErrReauthorizationRequired = errors.New("storage account authorization expired, re-link your Google Drive account")
	ErrRemoteStore             = errors.New("storage provider request failed")
	ErrOAuthExchangeFailed     = errors.New("could not complete Google Drive authorization")
)

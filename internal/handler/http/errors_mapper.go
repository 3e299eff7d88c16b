package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/service"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
)

// errorMapping ties a sentinel to a status code. An empty message sends the
// full error text to the client.
type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings is checked in order, so more specific sentinels come first.
var errorMappings = []errorMapping{
	{service.ErrNoAccounts, http.StatusConflict, "no storage accounts linked, link a Google Drive account first"},
	{service.ErrCapacityContention, http.StatusServiceUnavailable, "storage is busy, retry the upload"},
	{service.ErrInsufficientCapacity, http.StatusInsufficientStorage, ""},
	{service.ErrReauthorizationRequired, http.StatusUnauthorized, "re-link your Google Drive account"},
	{service.ErrOAuthExchangeFailed, http.StatusBadRequest, "Google authorization failed"},
	{service.ErrRemoteStore, http.StatusBadGateway, ""},

	{service.ErrShareLinkExpired, http.StatusGone, "this share link has expired"},
	{service.ErrSharePasswordRequired, http.StatusUnauthorized, "password required"},
	{service.ErrSharePasswordInvalid, http.StatusForbidden, "invalid password"},

	{service.ErrWrongPassword, http.StatusUnauthorized, "invalid login/password"},
	{store.ErrUserNotFound, http.StatusUnauthorized, "invalid login/password"},
	{service.ErrTokenIsExpiredOrInvalid, http.StatusUnauthorized, "token is expired or invalid"},
	{store.ErrLoginAlreadyExists, http.StatusConflict, "login already exists"},

	{service.ErrInvalidDataProvided, http.StatusBadRequest, ""},
	{service.ErrNotAFile, http.StatusBadRequest, "entry is not a file"},
	{service.ErrNotAFolder, http.StatusBadRequest, "entry is not a folder"},
	{store.ErrEntryNotFound, http.StatusNotFound, "file not found"},
	{store.ErrEntryAlreadyExists, http.StatusConflict, "an entry with this name already exists"},
	{store.ErrShareLinkNotFound, http.StatusNotFound, "share link not found"},
	{store.ErrAccountNotFound, http.StatusNotFound, "account not found"},

	{ErrInvalidJSON, http.StatusBadRequest, ""},
	{ErrInvalidID, http.StatusBadRequest, ""},
	{ErrInvalidForm, http.StatusBadRequest, ""},
	{ErrMissingFile, http.StatusBadRequest, ""},
	{ErrUploadTooLarge, http.StatusRequestEntityTooLarge, ""},
	{ErrRateLimited, http.StatusTooManyRequests, ""},
	{ErrEmptyAuthorizationHeader, http.StatusUnauthorized, ""},
	{ErrInvalidAuthorizationHeader, http.StatusUnauthorized, ""},
	{ErrNoUserInContext, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized)},
}

// resolveError returns the status code and client message for err.
func resolveError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.message == "" {
				return m.status, err.Error()
			}
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func statusFromError(err error) int {
	status, _ := resolveError(err)
	return status
}

// writeError maps err to a JSON error response. Client errors are logged at
// debug level, provider failures and internal errors at error level.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := resolveError(err)

	log := logger.FromRequest(r)
	if status >= http.StatusInternalServerError && status != http.StatusInsufficientStorage {
		log.Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	utils.WriteError(w, message, status)
}

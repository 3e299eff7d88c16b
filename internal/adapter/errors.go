package adapter

import "errors"

// Provider errors. mapHTTPError wraps them with the provider's own message.
var (
	ErrBadRequest          = errors.New("provider rejected the request")
	ErrUnauthorized        = errors.New("provider credentials rejected")
	ErrForbidden           = errors.New("provider denied access")
	ErrNotFound            = errors.New("remote object not found")
	ErrRateLimited         = errors.New("provider rate limit exceeded")
	ErrQuotaExceeded       = errors.New("provider storage quota exceeded")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRemoteStore         = errors.New("remote store error")
)

// OAuth errors.
var (
	ErrRefreshRevoked = errors.New("refresh token revoked or invalid")
	ErrOAuthExchange  = errors.New("authorization code exchange failed")
	ErrNoRefreshToken = errors.New("no refresh token")
)

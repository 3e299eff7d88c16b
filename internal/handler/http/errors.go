// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors raised by the transport layer itself. Callers can match
// against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// request carries neither an "Authorization" header nor a token query
	// parameter.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is returned when the "Authorization"
	// header is present but is not of the form "Bearer <token>".
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrInvalidJSON is returned when a request body cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON was passed")

	// ErrInvalidID is returned when a path parameter is not a positive integer.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidForm is returned when an upload body is not a valid
	// multipart form.
	ErrInvalidForm = errors.New("invalid multipart form")

	// ErrMissingFile is returned when an upload request has no "file" part.
	ErrMissingFile = errors.New("no file was uploaded")

	// ErrUploadTooLarge is returned when the upload body exceeds the limit.
	ErrUploadTooLarge = errors.New("upload is too large")

	// ErrRateLimited is returned when a client exceeds the public rate limit.
	ErrRateLimited = errors.New("too many requests")

	// ErrNoUserInContext is returned when an authenticated route runs
	// without a user ID in its context.
	ErrNoUserInContext = errors.New("no user in request context")
)

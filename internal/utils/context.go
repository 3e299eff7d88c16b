// Package utils provides general-purpose helpers used across the server:
// typed context keys, keyed hashing, JSON response writing, the shared HTTP
// client, JWT issuing/validation, random identifiers and byte formatting.
package utils

import (
	"context"
)

// contextKey is a private type for context keys so that values stored by this
// package never collide with string keys set elsewhere.
type contextKey string

// String implements fmt.Stringer.
func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey is the key under which the authenticated user's ID is stored.
//
//	ctx := context.WithValue(ctx, utils.UserIDCtxKey, int64(42))
var UserIDCtxKey = contextKey("userID")

// GetUserIDFromContext retrieves the authenticated user ID.
// ok is false when the value is missing or has an unexpected type.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDCtxKey, userID)
}

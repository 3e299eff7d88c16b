package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a parsed or freshly signed JWT used to authenticate API calls.
//
// SignedString is the compact serialized form sent in the Authorization header.
// UserID is the parsed "sub" claim.
type Token struct {
	*jwt.Token `json:"-"`
	jwt.RegisteredClaims

	SignedString string `json:"-"`
	UserID       int64  `json:"-"`
}

// GetUserID parses the "sub" claim as a base-10 int64.
func (t *Token) GetUserID() (int64, error) {
	subject, err := t.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("error extracting UserID from token: %w", err)
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting UserID from token to int64: %w", err)
	}

	return userID, nil
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}

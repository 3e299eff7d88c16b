package models

import "time"

// User is an application account that owns linked cloud accounts, virtual
// filesystem entries and share links.
type User struct {
	// UserID is the internal unique identifier of the user.
	UserID int64 `json:"-"`

	// Login is the unique user login identifier used during authentication.
	Login string `json:"login"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Password carries the plaintext password on register/login requests only.
	// It is replaced with its keyed hash before reaching the persistence layer.
	Password string `json:"password,omitempty"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at"`
}

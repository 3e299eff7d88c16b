// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Provider tags the storage backend behind an [Account]. Only Google Drive is
// implemented; the tag is persisted so other backends can be added later.
type Provider string

const (
	// ProviderGoogle is the Google Drive backend.
	ProviderGoogle Provider = "google"
)

// Account is a linked backing-storage credential set with its own quota.
//
// UsedStorage is maintained by the capacity ledger (incremented on upload,
// decremented on delete) and is not re-derived from the provider, so it may
// drift from the provider's own numbers.
type Account struct {
	ID       int64    `json:"id"`
	UserID   int64    `json:"-"`
	Provider Provider `json:"provider"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`

	// AccessToken and RefreshToken hold plaintext credentials in memory only.
	// The store keeps them encrypted and they are never serialized to clients.
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"-"`

	TotalStorage int64 `json:"total_storage"`
	UsedStorage  int64 `json:"used_storage"`
	IsActive     bool  `json:"is_active"`

	// RootFolderID is the isolation folder inside the provider's namespace
	// that receives every upload made through this account. Empty when unset.
	RootFolderID string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available returns total minus used storage as tracked by the ledger.
func (a Account) Available() int64 {
	return a.TotalStorage - a.UsedStorage
}

// CredentialsExpired reports whether the stored access token is past its
// expiry at the given moment. A zero expiry is treated as non-expiring.
func (a Account) CredentialsExpired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && a.ExpiresAt.Before(now)
}

// OAuthToken is the provider's answer to a code exchange or refresh.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// ProviderProfile is what the provider reports about a linked account:
// identity plus storage quota.
type ProviderProfile struct {
	Email      string
	Name       string
	QuotaLimit int64
	QuotaUsage int64
}

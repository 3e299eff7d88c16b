// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ShareLink is a public capability pointing at exactly one file entry.
//
// Token is an internal secret and Slug is the public identifier embedded in
// URLs. PasswordHash is a bcrypt hash and is empty when no password is set.
type ShareLink struct {
	ID            int64
	UserID        int64
	EntryID       int64
	Token         string
	Slug          string
	ExpiresAt     *time.Time
	PasswordHash  string
	IsActive      bool
	ViewCount     int64
	DownloadCount int64
	CreatedAt     time.Time

	// Entry is populated by lookups that join the target file.
	Entry *Entry
}

// IsValid reports whether the link grants access at the given moment:
// it must be active and either never expire or expire in the future.
func (s ShareLink) IsValid(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// HasPassword reports whether public access is password gated.
func (s ShareLink) HasPassword() bool {
	return s.PasswordHash != ""
}

// CreateShareRequest is the owner's request to publish a file.
type CreateShareRequest struct {
	FileID int64 `json:"file_id"`

	// ExpiresInHours is nil for links that never expire.
	ExpiresInHours *int `json:"expires_in,omitempty"`

	// Password is nil or empty for links without password protection.
	Password *string `json:"password,omitempty"`
}

// ShareLinkView is the owner-facing representation of a share link.
type ShareLinkView struct {
	ID            int64      `json:"id"`
	Slug          string     `json:"slug"`
	URL           string     `json:"url"`
	PreviewURL    string     `json:"preview_url"`
	DownloadURL   string     `json:"download_url"`
	FileName      string     `json:"file_name,omitempty"`
	FileID        int64      `json:"file_id"`
	ExpiresAt     *time.Time `json:"expires_at"`
	HasPassword   bool       `json:"has_password"`
	IsActive      bool       `json:"is_active"`
	ViewCount     int64      `json:"view_count"`
	DownloadCount int64      `json:"download_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// PublicShareView is what anonymous visitors of a share link see.
type PublicShareView struct {
	File struct {
		Name        string `json:"name"`
		MimeType    string `json:"mime_type"`
		Size        int64  `json:"size"`
		HasPassword bool   `json:"has_password"`
	} `json:"file"`
	PreviewURL  string     `json:"preview_url"`
	DownloadURL string     `json:"download_url"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

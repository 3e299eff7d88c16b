// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// RootPath is the implicit root of every user's virtual filesystem.
// It is never stored as a row.
const RootPath = "/"

// Entry is one node (file or folder) of a user's virtual filesystem.
//
// Path is always normalized: leading slash, no trailing slash. ParentID is nil
// for root-level entries. RemoteID addresses the bytes inside the provider and
// is nil for folders, which exist only logically.
type Entry struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"-"`
	AccountID int64         `json:"cloud_account_id"`
	ParentID  *int64        `json:"parent_id"`
	IsFolder  bool          `json:"is_folder"`
	Name      string        `json:"name"`
	Path      string        `json:"virtual_path"`
	MimeType  string        `json:"mime_type,omitempty"`
	Size      int64         `json:"size"`
	RemoteID  *string       `json:"-"`
	Metadata  EntryMetadata `json:"metadata,omitempty"`

	// AccountEmail is filled on listings for display purposes.
	AccountEmail string `json:"account_email,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RemoteObjectID returns the provider object identifier and whether the entry
// has a remote representation at all.
func (e Entry) RemoteObjectID() (string, bool) {
	if e.IsFolder || e.RemoteID == nil || *e.RemoteID == "" {
		return "", false
	}
	return *e.RemoteID, true
}

// EntryMetadata is the free-form bag of provider links stored with a file.
type EntryMetadata map[string]string

const (
	MetadataWebViewLink    = "webViewLink"
	MetadataWebContentLink = "webContentLink"
)

// NewEntry carries everything needed to index a freshly uploaded file.
type NewEntry struct {
	ParentID  *int64
	AccountID int64
	Name      string
	MimeType  string
	Size      int64
	RemoteID  string
	Metadata  EntryMetadata
}

// EntryCounts is the number of files and folders a user has indexed.
type EntryCounts struct {
	Files   int64
	Folders int64
}

// LedgerRelease is the amount of bytes returned to an account's ledger when
// files stored on it are removed from the index.
type LedgerRelease struct {
	AccountID int64
	Bytes     int64
}

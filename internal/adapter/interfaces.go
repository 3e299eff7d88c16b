// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter talks to the storage provider behind every linked account.
//
// [ObjectStore] is the remote object store: an ID-addressed blob namespace
// with folders, reached with a per-account access token. [OAuthProvider]
// obtains and renews those tokens. The package ships Google Drive v3
// implementations of both ([NewDriveObjectStore], [NewGoogleOAuthProvider]).
//
// Provider HTTP failures are mapped by mapHTTPError to the sentinel values in
// errors.go so callers can use [errors.Is] without knowing the wire format.
package adapter

import (
	"context"
	"io"

	"github.com/MKhiriev/go-drive-pool/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// ObjectStore is the provider's blob API. Every call authenticates with the
// access token of the account whose storage is addressed.
type ObjectStore interface {
	// Upload stores obj.Content under obj.ParentID (the provider root when
	// empty) and returns the created object with its provider links.
	Upload(ctx context.Context, accessToken string, obj models.UploadObject) (models.RemoteObject, error)

	// Delete removes the object permanently.
	Delete(ctx context.Context, accessToken, remoteID string) error

	// GetContent streams the object's bytes. The caller closes the reader.
	GetContent(ctx context.Context, accessToken, remoteID string) (io.ReadCloser, error)

	// GetMetadata returns name, MIME type, size and links of the object.
	GetMetadata(ctx context.Context, accessToken, remoteID string) (models.RemoteObject, error)

	// CreateFolder creates a folder under parentID (the provider root when
	// empty) and returns its identifier.
	CreateFolder(ctx context.Context, accessToken, name, parentID string) (string, error)

	// FindFolderByName looks up a non-trashed folder called name directly
	// under parentID. The boolean is false when there is none.
	FindFolderByName(ctx context.Context, accessToken, name, parentID string) (string, bool, error)

	// About reports the account identity and its storage quota.
	About(ctx context.Context, accessToken string) (models.ProviderProfile, error)
}

// OAuthProvider runs the authorization-code flow against the provider.
type OAuthProvider interface {
	// AuthCodeURL returns the consent page URL. state is echoed back to the
	// redirect URL.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (models.OAuthToken, error)

	// Refresh obtains a new access token. A revoked or invalid refresh token
	// is reported as [ErrRefreshRevoked].
	Refresh(ctx context.Context, refreshToken string) (models.OAuthToken, error)
}

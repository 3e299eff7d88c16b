// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

// newTestStore points a drive object store at the test server for both
// metadata and upload endpoints.
func newTestStore(t *testing.T, serverURL string) ObjectStore {
	t.Helper()

	store, err := NewDriveObjectStore(config.Google{
		APIBaseURL:    serverURL + "/drive/v3",
		UploadBaseURL: serverURL + "/upload/drive/v3",
	}, logger.Nop())
	require.NoError(t, err)
	return store
}

func TestNewDriveObjectStore_InvalidURL(t *testing.T) {
	_, err := NewDriveObjectStore(config.Google{APIBaseURL: "", UploadBaseURL: "https://x"}, logger.Nop())
	assert.Error(t, err)
}

// ── Upload ──────────────────────────────────────────────────────────────────

func TestUpload_SendsMultipartRelated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/drive/v3/files", r.URL.Path)
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/related", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])

		meta, err := reader.NextPart()
		require.NoError(t, err)
		var metadata map[string]any
		require.NoError(t, json.NewDecoder(meta).Decode(&metadata))
		assert.Equal(t, "report.pdf", metadata["name"])
		assert.Equal(t, []any{"root-folder"}, metadata["parents"])

		media, err := reader.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", media.Header.Get("Content-Type"))
		content, _ := io.ReadAll(media)
		assert.Equal(t, "pdf-bytes", string(content))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-1","name":"report.pdf","mimeType":"application/pdf","size":"9",
			"webViewLink":"https://view/file-1","webContentLink":"https://dl/file-1"}`))
	}))
	defer srv.Close()

	obj, err := newTestStore(t, srv.URL).Upload(context.Background(), "access-1", models.UploadObject{
		Name:     "report.pdf",
		MimeType: "application/pdf",
		Size:     9,
		ParentID: "root-folder",
		Content:  strings.NewReader("pdf-bytes"),
	})

	require.NoError(t, err)
	assert.Equal(t, "file-1", obj.ID)
	assert.Equal(t, int64(9), obj.Size)
	assert.Equal(t, "https://view/file-1", obj.WebViewLink)
	assert.Equal(t, "https://dl/file-1", obj.WebContentLink)
}

func TestUpload_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The user's Drive storage quota has been exceeded.","errors":[{"reason":"storageQuotaExceeded"}]}}`))
	}))
	defer srv.Close()

	_, err := newTestStore(t, srv.URL).Upload(context.Background(), "tok", models.UploadObject{
		Name:    "big.bin",
		Content: strings.NewReader("x"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "storage quota has been exceeded")
}

// ── Delete / GetContent / GetMetadata ───────────────────────────────────────

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "deleted", status: http.StatusNoContent},
		{name: "missing", status: http.StatusNotFound, wantErr: ErrNotFound},
		{name: "expired token", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "outage", status: http.StatusServiceUnavailable, wantErr: ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/drive/v3/files/file-1", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := newTestStore(t, srv.URL).Delete(context.Background(), "tok", "file-1")
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetContent_Streams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		_, _ = w.Write([]byte("hello drive"))
	}))
	defer srv.Close()

	body, err := newTestStore(t, srv.URL).GetContent(context.Background(), "tok", "file-1")
	require.NoError(t, err)
	defer body.Close()

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello drive", string(content))
}

func TestGetContent_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"File not found: file-1."}}`))
	}))
	defer srv.Close()

	_, err := newTestStore(t, srv.URL).GetContent(context.Background(), "tok", "file-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "File not found")
}

func TestGetMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, objectFields, r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-1","name":"a.txt","mimeType":"text/plain","size":"3"}`))
	}))
	defer srv.Close()

	obj, err := newTestStore(t, srv.URL).GetMetadata(context.Background(), "tok", "file-1")
	require.NoError(t, err)
	assert.Equal(t, models.RemoteObject{ID: "file-1", Name: "a.txt", MimeType: "text/plain", Size: 3}, obj)
}

// ── Folders / About ─────────────────────────────────────────────────────────

func TestCreateFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drive/v3/files", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TirtaCloud", body["name"])
		assert.Equal(t, folderMimeType, body["mimeType"])
		assert.Nil(t, body["parents"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"folder-1","name":"TirtaCloud"}`))
	}))
	defer srv.Close()

	id, err := newTestStore(t, srv.URL).CreateFolder(context.Background(), "tok", "TirtaCloud", "")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", id)
}

func TestFindFolderByName(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t,
				`name = 'Tirta\'s' and mimeType = 'application/vnd.google-apps.folder' and 'root' in parents and trashed = false`,
				r.URL.Query().Get("q"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"files":[{"id":"folder-1","name":"Tirta's"}]}`))
		}))
		defer srv.Close()

		id, ok, err := newTestStore(t, srv.URL).FindFolderByName(context.Background(), "tok", "Tirta's", "")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "folder-1", id)
	})

	t.Run("missing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"files":[]}`))
		}))
		defer srv.Close()

		_, ok, err := newTestStore(t, srv.URL).FindFolderByName(context.Background(), "tok", "TirtaCloud", "parent")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAbout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drive/v3/about", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"displayName":"Alice","emailAddress":"alice@example.com"},
			"storageQuota":{"limit":"16106127360","usage":"1024"}}`))
	}))
	defer srv.Close()

	profile, err := newTestStore(t, srv.URL).About(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderProfile{
		Email:      "alice@example.com",
		Name:       "Alice",
		QuotaLimit: 16106127360,
		QuotaUsage: 1024,
	}, profile)
}

func TestAbout_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestStore(t, srv.URL).About(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrRateLimited)
}

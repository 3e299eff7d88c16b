package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MKhiriev/go-drive-pool/internal/service"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sharedFile(passwordHash string) models.ShareLink {
	return models.ShareLink{
		ID:           3,
		EntryID:      9,
		Slug:         "abcdefghijkl",
		PasswordHash: passwordHash,
		IsActive:     true,
		Entry:        &models.Entry{ID: 9, Name: "cat.png", MimeType: "image/png", Size: 3},
	}
}

func resolvingShares(link models.ShareLink, err error) *mockShareService {
	return &mockShareService{
		resolveFn: func(_ context.Context, slug string) (models.ShareLink, error) {
			if slug != link.Slug {
				return models.ShareLink{}, store.ErrShareLinkNotFound
			}
			return link, err
		},
	}
}

func openingFiles(body string) *mockFileService {
	return &mockFileService{
		openFn: func(_ context.Context, entry models.Entry) (models.FileContent, error) {
			return fileContent(entry.Name, entry.MimeType, body), nil
		},
	}
}

// ── owner endpoints ─────────────────────────

func TestCreateShare(t *testing.T) {
	shares := &mockShareService{
		createFn: func(_ context.Context, userID int64, request models.CreateShareRequest) (models.ShareLink, error) {
			assert.Equal(t, testUserID, userID)
			assert.Equal(t, int64(9), request.FileID)
			require.NotNil(t, request.ExpiresInHours)
			assert.Equal(t, 24, *request.ExpiresInHours)
			return sharedFile("hash"), nil
		},
	}
	h := newTestHandler(&service.Services{ShareService: shares})

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/vfs/share", strings.NewReader(`{"file_id":9,"expires_in":24,"password":"hunter22"}`)))
	rec := httptest.NewRecorder()
	h.createShare(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body shareLinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abcdefghijkl", body.ShareLink.Slug)
	assert.True(t, body.ShareLink.HasPassword)
}

func TestCreateShare_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "invalid json", body: `nope`, wantStatus: http.StatusBadRequest},
		{name: "invalid data", body: `{"file_id":0}`, err: service.ErrInvalidDataProvided, wantStatus: http.StatusBadRequest},
		{name: "missing file", body: `{"file_id":9}`, err: store.ErrEntryNotFound, wantStatus: http.StatusNotFound},
		{name: "folder", body: `{"file_id":9}`, err: service.ErrNotAFile, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := &mockShareService{
				createFn: func(_ context.Context, _ int64, _ models.CreateShareRequest) (models.ShareLink, error) {
					return models.ShareLink{}, tt.err
				},
			}
			h := newTestHandler(&service.Services{ShareService: shares})

			req := asUser(httptest.NewRequest(http.MethodPost, "/api/vfs/share", strings.NewReader(tt.body)))
			rec := httptest.NewRecorder()
			h.createShare(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestListShares(t *testing.T) {
	shares := &mockShareService{
		listFn: func(_ context.Context, _ int64) ([]models.ShareLink, error) {
			return []models.ShareLink{sharedFile(""), sharedFile("hash")}, nil
		},
	}
	h := newTestHandler(&service.Services{ShareService: shares})

	rec := httptest.NewRecorder()
	h.listShares(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/vfs/shares", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body shareLinksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Shares, 2)
	assert.False(t, body.Shares[0].HasPassword)
	assert.True(t, body.Shares[1].HasPassword)
}

func TestListShares_Empty(t *testing.T) {
	shares := &mockShareService{
		listFn: func(_ context.Context, _ int64) ([]models.ShareLink, error) { return nil, nil },
	}
	h := newTestHandler(&service.Services{ShareService: shares})

	rec := httptest.NewRecorder()
	h.listShares(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/vfs/shares", nil)))

	assert.JSONEq(t, `{"shares":[]}`, rec.Body.String())
}

func TestRevokeShare(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "revoked", wantStatus: http.StatusOK},
		{name: "foreign link", err: store.ErrShareLinkNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := &mockShareService{
				revokeFn: func(_ context.Context, _, linkID int64) error {
					assert.Equal(t, int64(3), linkID)
					return tt.err
				},
			}
			h := newTestHandler(&service.Services{ShareService: shares})

			req := withURLParam(asUser(httptest.NewRequest(http.MethodDelete, "/api/vfs/shares/3", nil)), "id", "3")
			rec := httptest.NewRecorder()
			h.revokeShare(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err == nil {
				assert.JSONEq(t, `{"message":"Share link revoked"}`, rec.Body.String())
			}
		})
	}
}

// ── public endpoints ────────────────────────

func TestPublicShare_RecordsView(t *testing.T) {
	shares := resolvingShares(sharedFile("hash"), nil)
	h := newTestHandler(&service.Services{ShareService: shares})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/share/abcdefghijkl", nil), "slug", "abcdefghijkl")
	rec := httptest.NewRecorder()
	h.publicShare(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, shares.views)
	assert.Equal(t, 0, shares.downloads)

	var body models.PublicShareView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cat.png", body.File.Name)
	assert.True(t, body.File.HasPassword)
}

func TestPublicShare_Errors(t *testing.T) {
	tests := []struct {
		name       string
		slug       string
		err        error
		wantStatus int
	}{
		{name: "unknown slug", slug: "zzzzzzzzzzzz", wantStatus: http.StatusNotFound},
		{name: "expired", slug: "abcdefghijkl", err: service.ErrShareLinkExpired, wantStatus: http.StatusGone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := resolvingShares(sharedFile(""), tt.err)
			h := newTestHandler(&service.Services{ShareService: shares})

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/share/"+tt.slug, nil), "slug", tt.slug)
			rec := httptest.NewRecorder()
			h.publicShare(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, 0, shares.views)
		})
	}
}

func TestPublicDownload_PasswordFromHeader(t *testing.T) {
	shares := resolvingShares(sharedFile("hash"), nil)
	var gotPassword string
	shares.authorizeFn = func(_ models.ShareLink, password string) error {
		gotPassword = password
		return nil
	}
	h := newTestHandler(&service.Services{ShareService: shares, FileService: openingFiles("png")})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/share/abcdefghijkl/download?password=ignored", nil), "slug", "abcdefghijkl")
	req.Header.Set(sharePasswordHeader, "hunter22")
	rec := httptest.NewRecorder()
	h.publicDownload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hunter22", gotPassword)
	assert.Equal(t, "png", rec.Body.String())
	assert.Equal(t, "attachment; filename=cat.png", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, 1, shares.downloads)
}

func TestPublicPreview_NotStoredBySharedCaches(t *testing.T) {
	shares := resolvingShares(sharedFile(""), nil)
	h := newTestHandler(&service.Services{ShareService: shares, FileService: openingFiles("png")})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/share/abcdefghijkl/preview", nil), "slug", "abcdefghijkl")
	rec := httptest.NewRecorder()
	h.publicPreview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inline; filename=cat.png", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "private, max-age=60", rec.Header().Get("Cache-Control"))
	assert.NotContains(t, rec.Header().Get("Cache-Control"), "public")
	assert.Equal(t, 0, shares.downloads)
}

func TestPublicDownload_PasswordFromQuery(t *testing.T) {
	shares := resolvingShares(sharedFile("hash"), nil)
	var gotPassword string
	shares.authorizeFn = func(_ models.ShareLink, password string) error {
		gotPassword = password
		return nil
	}
	h := newTestHandler(&service.Services{ShareService: shares, FileService: openingFiles("png")})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/share/abcdefghijkl/download?password=s3cret", nil), "slug", "abcdefghijkl")
	rec := httptest.NewRecorder()
	h.publicDownload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s3cret", gotPassword)
}

func TestPublicDownload_PasswordRejected(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{service.ErrSharePasswordRequired, http.StatusUnauthorized},
		{service.ErrSharePasswordInvalid, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			shares := resolvingShares(sharedFile("hash"), nil)
			shares.authorizeFn = func(_ models.ShareLink, _ string) error { return tt.err }
			h := newTestHandler(&service.Services{ShareService: shares, FileService: &mockFileService{}})

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/share/abcdefghijkl/download", nil), "slug", "abcdefghijkl")
			rec := httptest.NewRecorder()
			h.publicDownload(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, 0, shares.downloads)
		})
	}
}

func TestPublicDownload_RemoteFailure(t *testing.T) {
	shares := resolvingShares(sharedFile(""), nil)
	files := &mockFileService{
		openFn: func(_ context.Context, _ models.Entry) (models.FileContent, error) {
			return models.FileContent{}, service.ErrRemoteStore
		},
	}
	h := newTestHandler(&service.Services{ShareService: shares, FileService: files})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/share/abcdefghijkl/download", nil), "slug", "abcdefghijkl")
	rec := httptest.NewRecorder()
	h.publicDownload(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 0, shares.downloads)
}

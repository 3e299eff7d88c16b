package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	objectFields   = "id,name,mimeType,size,webViewLink,webContentLink"
)

// driveFile is the subset of the Drive v3 file resource the pool reads.
type driveFile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MimeType       string `json:"mimeType"`
	Size           int64  `json:"size,string"`
	WebViewLink    string `json:"webViewLink"`
	WebContentLink string `json:"webContentLink"`
}

func (f driveFile) toRemoteObject() models.RemoteObject {
	return models.RemoteObject{
		ID:             f.ID,
		Name:           f.Name,
		MimeType:       f.MimeType,
		Size:           f.Size,
		WebViewLink:    f.WebViewLink,
		WebContentLink: f.WebContentLink,
	}
}

type driveFileList struct {
	Files []driveFile `json:"files"`
}

type driveAbout struct {
	User struct {
		DisplayName  string `json:"displayName"`
		EmailAddress string `json:"emailAddress"`
	} `json:"user"`
	StorageQuota struct {
		Limit int64 `json:"limit,string"`
		Usage int64 `json:"usage,string"`
	} `json:"storageQuota"`
}

type driveObjectStore struct {
	client    *utils.HTTPClient
	uploadURL string

	logger *logger.Logger
}

// NewDriveObjectStore constructs the Google Drive v3 implementation of
// [ObjectStore]. Metadata calls go to cfg.APIBaseURL and uploads to
// cfg.UploadBaseURL.
func NewDriveObjectStore(cfg config.Google, logger *logger.Logger) (ObjectStore, error) {
	apiURL, err := normalizeBaseURL(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid drive api url: %w", err)
	}
	uploadURL, err := normalizeBaseURL(cfg.UploadBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid drive upload url: %w", err)
	}

	client := utils.NewHTTPClient(cfg.RequestTimeout)
	client.SetBaseURL(apiURL)

	return &driveObjectStore{client: client, uploadURL: uploadURL, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Upload implements [ObjectStore] with a multipart/related upload. The body
// is streamed through a pipe so the file is never buffered in memory.
func (d *driveObjectStore) Upload(ctx context.Context, accessToken string, obj models.UploadObject) (models.RemoteObject, error) {
	metadata := map[string]any{"name": obj.Name}
	if obj.MimeType != "" {
		metadata["mimeType"] = obj.MimeType
	}
	if obj.ParentID != "" {
		metadata["parents"] = []string{obj.ParentID}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeRelatedBody(mw, metadata, obj))
	}()

	var created driveFile
	resp, err := d.authedRequest(ctx, accessToken).
		SetHeader("Content-Type", "multipart/related; boundary="+mw.Boundary()).
		SetQueryParam("uploadType", "multipart").
		SetQueryParam("fields", objectFields).
		SetBody(pr).
		SetResult(&created).
		Post(d.uploadURL + "/files")
	_ = pr.Close()
	if err != nil {
		return models.RemoteObject{}, fmt.Errorf("%w: upload request: %w", ErrRemoteStore, err)
	}
	if err = mapHTTPError(resp); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*driveObjectStore.Upload").Str("name", obj.Name).Msg("drive rejected upload")
		return models.RemoteObject{}, err
	}

	return created.toRemoteObject(), nil
}

func writeRelatedBody(mw *multipart.Writer, metadata map[string]any, obj models.UploadObject) error {
	metaPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return err
	}
	if err = json.NewEncoder(metaPart).Encode(metadata); err != nil {
		return err
	}

	mimeType := obj.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	mediaPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {mimeType}})
	if err != nil {
		return err
	}
	if obj.Content != nil {
		if _, err = io.Copy(mediaPart, obj.Content); err != nil {
			return err
		}
	}

	return mw.Close()
}

func (d *driveObjectStore) Delete(ctx context.Context, accessToken, remoteID string) error {
	resp, err := d.authedRequest(ctx, accessToken).
		SetPathParam("id", remoteID).
		Delete("/files/{id}")
	if err != nil {
		return fmt.Errorf("%w: delete request: %w", ErrRemoteStore, err)
	}

	return mapHTTPError(resp)
}

// GetContent implements [ObjectStore]. The response body is handed to the
// caller unread.
func (d *driveObjectStore) GetContent(ctx context.Context, accessToken, remoteID string) (io.ReadCloser, error) {
	resp, err := d.authedRequest(ctx, accessToken).
		SetDoNotParseResponse(true).
		SetPathParam("id", remoteID).
		SetQueryParam("alt", "media").
		Get("/files/{id}")
	if err != nil {
		return nil, fmt.Errorf("%w: content request: %w", ErrRemoteStore, err)
	}

	body := resp.RawBody()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		defer body.Close()
		raw, _ := io.ReadAll(io.LimitReader(body, 64<<10))
		return nil, mapStatus(resp.StatusCode(), raw)
	}

	return body, nil
}

func (d *driveObjectStore) GetMetadata(ctx context.Context, accessToken, remoteID string) (models.RemoteObject, error) {
	var file driveFile
	resp, err := d.authedRequest(ctx, accessToken).
		SetPathParam("id", remoteID).
		SetQueryParam("fields", objectFields).
		SetResult(&file).
		Get("/files/{id}")
	if err != nil {
		return models.RemoteObject{}, fmt.Errorf("%w: metadata request: %w", ErrRemoteStore, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteObject{}, err
	}

	return file.toRemoteObject(), nil
}

func (d *driveObjectStore) CreateFolder(ctx context.Context, accessToken, name, parentID string) (string, error) {
	body := map[string]any{"name": name, "mimeType": folderMimeType}
	if parentID != "" {
		body["parents"] = []string{parentID}
	}

	var folder driveFile
	resp, err := d.authedRequest(ctx, accessToken).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("fields", "id,name").
		SetBody(body).
		SetResult(&folder).
		Post("/files")
	if err != nil {
		return "", fmt.Errorf("%w: create folder request: %w", ErrRemoteStore, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return folder.ID, nil
}

func (d *driveObjectStore) FindFolderByName(ctx context.Context, accessToken, name, parentID string) (string, bool, error) {
	if parentID == "" {
		parentID = "root"
	}
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQueryValue(name), folderMimeType, escapeQueryValue(parentID))

	var list driveFileList
	resp, err := d.authedRequest(ctx, accessToken).
		SetQueryParams(map[string]string{
			"q":        query,
			"fields":   "files(id,name)",
			"pageSize": "1",
		}).
		SetResult(&list).
		Get("/files")
	if err != nil {
		return "", false, fmt.Errorf("%w: find folder request: %w", ErrRemoteStore, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", false, err
	}

	if len(list.Files) == 0 {
		return "", false, nil
	}
	return list.Files[0].ID, true, nil
}

// About implements [ObjectStore]. An unlimited quota is reported with a zero
// QuotaLimit.
func (d *driveObjectStore) About(ctx context.Context, accessToken string) (models.ProviderProfile, error) {
	var about driveAbout
	resp, err := d.authedRequest(ctx, accessToken).
		SetQueryParam("fields", "user(displayName,emailAddress),storageQuota(limit,usage)").
		SetResult(&about).
		Get("/about")
	if err != nil {
		return models.ProviderProfile{}, fmt.Errorf("%w: about request: %w", ErrRemoteStore, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ProviderProfile{}, err
	}

	return models.ProviderProfile{
		Email:      about.User.EmailAddress,
		Name:       about.User.DisplayName,
		QuotaLimit: about.StorageQuota.Limit,
		QuotaUsage: about.StorageQuota.Usage,
	}, nil
}

func (d *driveObjectStore) authedRequest(ctx context.Context, accessToken string) *resty.Request {
	return d.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken)
}

// escapeQueryValue escapes a literal for the Drive search query language.
func escapeQueryValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

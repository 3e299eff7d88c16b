package models

import "io"

// RemoteObject describes a file stored inside the provider.
type RemoteObject struct {
	ID             string
	Name           string
	MimeType       string
	Size           int64
	WebViewLink    string
	WebContentLink string
}

// UploadObject is a file about to be written to the provider.
type UploadObject struct {
	Name     string
	MimeType string
	Size     int64
	ParentID string
	Content  io.Reader
}

// FileUpload is an upload request as received from the API.
// Either ParentID or Path may identify the target folder; both empty means root.
type FileUpload struct {
	ParentID *int64
	Path     string
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

// FileContent is a stream of a stored file together with what a client needs
// to present it. Callers must close Content.
type FileContent struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.ReadCloser
}

package models

// CreateFolderRequest is the body of a folder creation call.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// LinkAccountRequest carries the OAuth authorization code returned by the
// provider's consent screen.
type LinkAccountRequest struct {
	Code string `json:"code"`
}

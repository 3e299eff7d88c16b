// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

const (
	// multipartMemory is how much of an upload is buffered in memory before
	// the rest is spooled to a temporary file.
	multipartMemory = 32 << 20

	// multipartOverhead is the allowance for form fields and part headers on
	// top of the file size limit.
	multipartOverhead = 1 << 20

	ownerCacheControl = "private, max-age=3600"
)

type listFilesResponse struct {
	Path  string         `json:"path"`
	Files []models.Entry `json:"files"`
}

type uploadResponse struct {
	Message string       `json:"message"`
	File    models.Entry `json:"file"`
}

type createFolderResponse struct {
	Message string       `json:"message"`
	Folder  models.Entry `json:"folder"`
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		path = models.RootPath
	}

	entries, err := h.services.VFSService.List(r.Context(), id, path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}

	_, _ = utils.WriteJSON(w, listFilesResponse{Path: path, Files: entries}, http.StatusOK)
}

// uploadFile accepts a multipart form with a "file" part and an optional
// "path" or "parent_id" naming the target folder.
func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.maxUploadSize > 0 {
		limit := h.maxUploadSize + multipartOverhead
		if r.ContentLength > limit {
			writeError(w, r, ErrUploadTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err = r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, ErrUploadTooLarge)
			return
		}
		writeError(w, r, fmt.Errorf("%w: %w", ErrInvalidForm, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, ErrMissingFile)
		return
	}
	defer file.Close()

	upload := models.FileUpload{
		Path:     r.FormValue("path"),
		Name:     header.Filename,
		MimeType: detectMimeType(header),
		Size:     header.Size,
		Content:  file,
	}
	if raw := r.FormValue("parent_id"); raw != "" {
		parentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, ErrInvalidID)
			return
		}
		upload.ParentID = &parentID
	}

	entry, err := h.services.FileService.Upload(r.Context(), id, upload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, uploadResponse{Message: "File uploaded successfully", File: entry}, http.StatusCreated)
}

func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	h.serveOwnedFile(w, r, "attachment")
}

func (h *Handler) previewFile(w http.ResponseWriter, r *http.Request) {
	h.serveOwnedFile(w, r, "inline")
}

func (h *Handler) serveOwnedFile(w http.ResponseWriter, r *http.Request, disposition string) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	content, err := h.services.FileService.Download(r.Context(), id, entryID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeContent(w, r, content, disposition, ownerCacheControl)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err = h.services.FileService.Delete(r.Context(), id, entryID); err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, messageResponse{Message: "File deleted successfully"}, http.StatusOK)
}

func (h *Handler) createFolder(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var request models.CreateFolderRequest
	if err = decodeJSON(r, &request); err != nil {
		writeError(w, r, err)
		return
	}

	folder, err := h.services.FileService.CreateFolder(r.Context(), id, request)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, createFolderResponse{Message: "Folder created", Folder: folder}, http.StatusCreated)
}

// detectMimeType prefers the part's declared type and falls back to the
// file extension.
func detectMimeType(header *multipart.FileHeader) string {
	declared := header.Header.Get("Content-Type")
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
		return byExt
	}
	return declared
}

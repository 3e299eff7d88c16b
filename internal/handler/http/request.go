package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
	"github.com/go-chi/chi/v5"
)

// messageResponse is the body of calls that only confirm an action.
type messageResponse struct {
	Message string `json:"message"`
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// writeContent streams a stored file. disposition is "inline" or "attachment".
func writeContent(w http.ResponseWriter, r *http.Request, content models.FileContent, disposition, cacheControl string) {
	defer content.Content.Close()

	header := w.Header()
	header.Set("Content-Type", content.MimeType)
	header.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": content.Name}))
	header.Set("X-Content-Type-Options", "nosniff")
	if cacheControl != "" {
		header.Set("Cache-Control", cacheControl)
	}
	if content.Size > 0 {
		header.Set("Content-Length", strconv.FormatInt(content.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content.Content); err != nil {
		logger.FromRequest(r).Warn().Err(err).Str("name", content.Name).Msg("file stream interrupted")
	}
}

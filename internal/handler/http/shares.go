package http

import (
	"net/http"

	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
	"github.com/go-chi/chi/v5"
)

const (
	sharePasswordHeader = "X-Share-Password"
	sharePasswordParam  = "password"

	// Shared caches must not keep serving a link after it is revoked or
	// expires, so only the browser may hold the content, and briefly.
	publicShareCacheControl    = "private, max-age=60"
	protectedShareCacheControl = "private, no-store"
)

type shareLinkResponse struct {
	ShareLink models.ShareLinkView `json:"share_link"`
}

type shareLinksResponse struct {
	Shares []models.ShareLinkView `json:"shares"`
}

func (h *Handler) createShare(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var request models.CreateShareRequest
	if err = decodeJSON(r, &request); err != nil {
		writeError(w, r, err)
		return
	}

	shares := h.services.ShareService
	link, err := shares.Create(r.Context(), id, request)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, shareLinkResponse{ShareLink: shares.OwnerView(link)}, http.StatusOK)
}

func (h *Handler) listShares(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	shares := h.services.ShareService
	links, err := shares.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]models.ShareLinkView, 0, len(links))
	for _, link := range links {
		views = append(views, shares.OwnerView(link))
	}

	_, _ = utils.WriteJSON(w, shareLinksResponse{Shares: views}, http.StatusOK)
}

func (h *Handler) revokeShare(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	linkID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err = h.services.ShareService.Revoke(r.Context(), id, linkID); err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, messageResponse{Message: "Share link revoked"}, http.StatusOK)
}

// publicShare describes a shared file to an anonymous visitor. The password,
// if any, is only required for the file bytes.
func (h *Handler) publicShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shares := h.services.ShareService

	link, err := shares.Resolve(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shares.RecordView(ctx, link)

	_, _ = utils.WriteJSON(w, shares.PublicView(link), http.StatusOK)
}

func (h *Handler) publicPreview(w http.ResponseWriter, r *http.Request) {
	h.servePublicFile(w, r, "inline")
}

func (h *Handler) publicDownload(w http.ResponseWriter, r *http.Request) {
	h.servePublicFile(w, r, "attachment")
}

func (h *Handler) servePublicFile(w http.ResponseWriter, r *http.Request, disposition string) {
	ctx := r.Context()
	shares := h.services.ShareService

	link, err := shares.Resolve(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err = shares.Authorize(link, sharePassword(r)); err != nil {
		writeError(w, r, err)
		return
	}

	content, err := h.services.FileService.Open(ctx, *link.Entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if disposition == "attachment" {
		shares.RecordDownload(ctx, link)
	}

	cacheControl := publicShareCacheControl
	if link.HasPassword() {
		cacheControl = protectedShareCacheControl
	}
	writeContent(w, r, content, disposition, cacheControl)
}

func sharePassword(r *http.Request) string {
	if password := r.Header.Get(sharePasswordHeader); password != "" {
		return password
	}
	return r.URL.Query().Get(sharePasswordParam)
}

package http

import (
	"net/http"

	"github.com/MKhiriev/go-drive-pool/internal/utils"
)

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	_, _ = utils.WriteJSON(w, h.services.AppInfoService.GetAppInfo(r.Context()), http.StatusOK)
}

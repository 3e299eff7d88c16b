package http

import (
	"net/http"

	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

type accountsUsageResponse struct {
	Accounts []models.AccountUsage `json:"accounts"`
}

func (h *Handler) storageStats(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := h.services.StatsService.Stats(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, stats, http.StatusOK)
}

func (h *Handler) storageAccounts(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	usage, err := h.services.StatsService.AccountsUsage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if usage == nil {
		usage = []models.AccountUsage{}
	}

	_, _ = utils.WriteJSON(w, accountsUsageResponse{Accounts: usage}, http.StatusOK)
}

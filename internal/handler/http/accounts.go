package http

import (
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-drive-pool/internal/service"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

type authURLResponse struct {
	URL string `json:"url"`
}

type linkAccountResponse struct {
	Message string         `json:"message"`
	Account models.Account `json:"account"`
}

type accountsResponse struct {
	Accounts []models.Account `json:"accounts"`
}

func (h *Handler) driveAuthURL(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	url, err := h.services.AccountService.AuthURL(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, authURLResponse{URL: url}, http.StatusOK)
}

func (h *Handler) driveCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var request models.LinkAccountRequest
	if err = decodeJSON(r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	if err = h.validator.Validate(ctx, request); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", service.ErrInvalidDataProvided, err))
		return
	}

	account, err := h.services.AccountService.LinkAccount(ctx, id, request.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, linkAccountResponse{Message: "Account linked successfully", Account: account}, http.StatusOK)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts, err := h.services.AccountService.ListAccounts(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	_, _ = utils.WriteJSON(w, accountsResponse{Accounts: accounts}, http.StatusOK)
}

func (h *Handler) unlinkAccount(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err = h.services.AccountService.UnlinkAccount(r.Context(), id, accountID); err != nil {
		writeError(w, r, err)
		return
	}

	_, _ = utils.WriteJSON(w, messageResponse{Message: "Account unlinked"}, http.StatusOK)
}

package http

import (
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/service"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
	"github.com/MKhiriev/go-drive-pool/models"
)

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var user models.User
	if err := decodeJSON(r, &user); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(ctx, user); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", service.ErrInvalidDataProvided, err))
		return
	}

	registeredUser, err := h.services.AuthService.RegisterUser(ctx, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromRequest(r).Info().Int64("id", registeredUser.UserID).Msg("user registered")
	h.writeToken(w, r, registeredUser, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var user models.User
	if err := decodeJSON(r, &user); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(ctx, user); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", service.ErrInvalidDataProvided, err))
		return
	}

	foundUser, err := h.services.AuthService.Login(ctx, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromRequest(r).Debug().Int64("id", foundUser.UserID).Msg("user successfully logged in")
	h.writeToken(w, r, foundUser, http.StatusOK)
}

// writeToken issues a token for user and returns it both in the
// Authorization header and in the body.
func (h *Handler) writeToken(w http.ResponseWriter, r *http.Request, user models.User, status int) {
	token, err := h.services.AuthService.CreateToken(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token.SignedString)
	_, _ = utils.WriteJSON(w, authResponse{Token: token.SignedString, User: user}, status)
}

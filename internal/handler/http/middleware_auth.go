package http

import (
	"net/http"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/utils"
)

// tokenQueryParam carries the JWT on URLs a browser embeds directly (img,
// video and iframe sources) and therefore cannot attach headers to.
const tokenQueryParam = "token"

// auth is an HTTP middleware that enforces JWT-based authentication.
//
// The token is taken from the "Authorization: Bearer <token>" header or,
// when the header is absent, from the "token" query parameter. It is
// validated via [service.AuthService.ParseToken] and on success the user ID
// is stored in the request context under [utils.UserIDCtxKey].
//
// Requests without a token or with an invalid one are rejected with 401.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		tokenString, err := tokenFromRequest(r)
		if err != nil {
			log.Debug().Err(err).Msg("unauthenticated request")
			writeError(w, r, err)
			return
		}

		ctx := r.Context()
		token, err := h.services.AuthService.ParseToken(ctx, tokenString)
		if err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(utils.WithUserID(ctx, token.UserID)))
	})
}

func tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, err := utils.ParseBearerToken(header)
		if err != nil {
			return "", ErrInvalidAuthorizationHeader
		}
		return token, nil
	}

	if token := r.URL.Query().Get(tokenQueryParam); token != "" {
		return token, nil
	}

	return "", ErrEmptyAuthorizationHeader
}

// userID returns the authenticated user of the request.
func userID(r *http.Request) (int64, error) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return 0, ErrNoUserInContext
	}
	return id, nil
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// withTimeout bounds a request by the configured timeout and answers 504 when
// the handler runs past it. A zero timeout disables the bound.
func (h *Handler) withTimeout(next http.Handler) http.Handler {
	if h.requestTimeout <= 0 {
		return next
	}
	return middleware.Timeout(h.requestTimeout)(next)
}

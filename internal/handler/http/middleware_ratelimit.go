package http

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/ratelimit"
)

// withRateLimit throttles anonymous clients per IP. A failing limiter store
// lets the request through.
func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := h.clientIP(r)

		allowed, err := h.limiter.Allow(r.Context(), ip)
		if err != nil {
			logger.FromRequest(r).Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(ratelimit.Window.Seconds())))
			writeError(w, r, ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the address the request came from. X-Forwarded-For is
// only consulted when the direct peer is a trusted proxy; the chain is then
// walked from the right and the first hop that is not a trusted proxy wins.
func (h *Handler) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !h.isTrustedProxy(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !h.isTrustedProxy(hop) {
			return hop
		}
		peer = hop
	}
	return peer
}

func (h *Handler) isTrustedProxy(ip string) bool {
	if len(h.trustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range h.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

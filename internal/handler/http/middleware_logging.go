package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
)

// withLogging writes one access log line per request once the response is done.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		start := time.Now()

		uri := r.RequestURI
		method := r.Method

		lw := &responseWriter{
			ResponseWriter: w,
		}

		next.ServeHTTP(lw, r)

		duration := time.Since(start)

		log.Info().
			Str("uri", redactSecrets(uri)).
			Str("method", method).
			Int("status", lw.status).
			Dur("duration", duration).
			Int64("size", lw.size).
			Send()
	})
}

// secretQueryParams are the query parameters whose values never reach the
// access log.
var secretQueryParams = []string{tokenQueryParam, sharePasswordParam}

// redactSecrets hides a JWT or a share password passed in the query string.
func redactSecrets(uri string) string {
	u, err := url.ParseRequestURI(uri)
	if err != nil || u.RawQuery == "" {
		return uri
	}

	q := u.Query()
	redacted := false
	for _, param := range secretQueryParams {
		if q.Has(param) {
			q.Set(param, "REDACTED")
			redacted = true
		}
	}
	if !redacted {
		return uri
	}

	u.RawQuery = q.Encode()
	return u.String()
}

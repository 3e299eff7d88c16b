package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(h.withTraceID, h.withLogging, middleware.Recoverer)

	// JSON endpoints: compressed and bounded by the request timeout
	router.Group(func(r chi.Router) {
		r.Use(withGZip, h.withTimeout)

		r.Post("/api/user/register", h.register)
		r.Post("/api/user/login", h.login)
		r.Get("/api/version", h.getServerVersion)
		r.With(h.withRateLimit).Get("/api/share/{slug}", h.publicShare)

		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Get("/api/drive/auth-url", h.driveAuthURL)
			r.Post("/api/drive/callback", h.driveCallback)
			r.Get("/api/accounts", h.listAccounts)
			r.Delete("/api/accounts/{id}", h.unlinkAccount)

			r.Get("/api/vfs/files", h.listFiles)
			r.Delete("/api/vfs/files/{id}", h.deleteFile)
			r.Post("/api/vfs/create-folder", h.createFolder)
			r.Post("/api/vfs/share", h.createShare)
			r.Get("/api/vfs/shares", h.listShares)
			r.Delete("/api/vfs/shares/{id}", h.revokeShare)

			r.Get("/api/storage/stats", h.storageStats)
			r.Get("/api/storage/accounts", h.storageAccounts)
		})
	})

	// streaming endpoints: file bodies are neither compressed nor cut off
	router.Group(func(r chi.Router) {
		r.With(h.withRateLimit).Get("/api/share/{slug}/preview", h.publicPreview)
		r.With(h.withRateLimit).Get("/api/share/{slug}/download", h.publicDownload)

		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Post("/api/vfs/upload", h.uploadFile)
			r.Get("/api/vfs/download/{id}", h.downloadFile)
			r.Get("/api/vfs/preview/{id}", h.previewFile)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.RegisterHandler)
		r.Post("/login", h.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Get("/me", h.MeHandler)
			r.Post("/logout", h.LogoutHandler)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Use(h.AdminOnly)
		r.Post("/upload", h.UploadHandler)
		r.Get("/files", h.ListFilesHandler)
		r.Delete("/files/{name}", h.DeleteFileHandler)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Post("/agent", h.AskAgentHandler)
		r.Get("/history/{sessionID}", h.ChatHistoryHandler)
		r.Post("/clear-memory", h.ClearMemoryHandler)
	})

	return r
}

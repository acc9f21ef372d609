// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET /login and POST /auth/login.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/login", h.ServeLogin)
	r.Post("/auth/login", h.HandleLoginPost)
}

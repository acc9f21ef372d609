// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET /auth/logout. Signed-out visitors are simply
// sent home.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/auth/logout", h.ServeLogout)
}

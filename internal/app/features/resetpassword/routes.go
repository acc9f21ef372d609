// internal/app/features/resetpassword/routes.go
package resetpassword

import "github.com/go-chi/chi/v5"

// MountRoutes registers the reset request form and the reset link.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/auth/reset-password", h.ServeRequest)
	r.Post("/auth/reset-password", h.HandleRequest)
	r.Get("/auth/reset/{token}", h.ServeReset)
	r.Post("/auth/reset/{token}", h.HandleReset)
}

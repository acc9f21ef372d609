// internal/app/features/verify/routes.go
package verify

import "github.com/go-chi/chi/v5"

// MountRoutes registers the verification link and the resend form.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/verify/{token}", h.HandleVerify)
	r.Get("/resend-verification", h.ServeResend)
	r.Post("/resend-verification", h.HandleResend)
}

// internal/app/features/home/routes.go
package home

import "github.com/go-chi/chi/v5"

// MountRoutes registers the landing page on the root router. It is an exact
// match so unknown paths still reach the router's NotFound handler.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.ServeRoot)
}

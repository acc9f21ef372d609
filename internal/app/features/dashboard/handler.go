// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/dalemusser/stratagate/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type Handler struct {
	Site viewdata.SiteInfoSource
	Log  *zap.Logger
}

func NewHandler(site viewdata.SiteInfoSource, logger *zap.Logger) *Handler {
	return &Handler{
		Site: site,
		Log:  logger,
	}
}

type dashboardData struct {
	viewdata.BaseVM
	Email    string
	Verified bool
}

// ServeDashboard is the signed-in landing page.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	data, ok := h.viewModel(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	templates.Render(w, r, "dashboard", data)
}

func (h *Handler) viewModel(r *http.Request) (dashboardData, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return dashboardData{}, false
	}
	return dashboardData{
		BaseVM:   viewdata.NewBaseVM(r, h.Site, "Dashboard", "/"),
		Email:    u.Email,
		Verified: u.Verified,
	}, true
}

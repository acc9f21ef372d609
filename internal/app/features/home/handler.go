// internal/app/features/home/handler.go
package home

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/policy/regpolicy"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/app/system/viewdata"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// SettingsSource returns the current settings.
type SettingsSource interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Site     viewdata.SiteInfoSource
	Settings SettingsSource
	Log      *zap.Logger
}

func NewHandler(site viewdata.SiteInfoSource, settings SettingsSource, logger *zap.Logger) *Handler {
	return &Handler{
		Site:     site,
		Settings: settings,
		Log:      logger,
	}
}

type homeData struct {
	viewdata.BaseVM
	RegistrationOpen bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "home", h.viewModel(r))
}

func (h *Handler) viewModel(r *http.Request) homeData {
	data := homeData{BaseVM: viewdata.NewBaseVM(r, h.Site, "Welcome", "/")}
	if h.Settings == nil {
		return data
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Store())
	defer cancel()
	s, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Warn("home: load settings failed", zap.Error(err))
		return data
	}
	data.RegistrationOpen = regpolicy.Enabled(s)
	return data
}

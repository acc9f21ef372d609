// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/query"
)

// SiteInfoSource loads the display values for the site.
type SiteInfoSource interface {
	SiteInfo(ctx context.Context) (models.SiteInfo, error)
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, site, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	// Site settings (from the store)
	SiteName string
	LogoURL  string

	// User context (from auth middleware)
	IsLoggedIn bool
	IsAdmin    bool
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// Flash messages decoded from the ?success= and ?error= codes.
	SuccessMsg string
	ErrorMsg   string
}

// NewBaseVM creates a fully populated BaseVM for a page.
// site may be nil, in which case defaults are used.
func NewBaseVM(r *http.Request, site SiteInfoSource, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    models.DefaultSiteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		SuccessMsg:  SuccessMessage(query.Get(r, "success")),
		ErrorMsg:    ErrorMessage(query.Get(r, "error")),
	}

	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.IsAdmin = u.IsAdmin
		vm.UserName = u.Username
	}

	if site != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Store())
		defer cancel()
		if info, err := site.SiteInfo(ctx); err == nil {
			vm.SiteName = info.Name
			vm.LogoURL = info.LogoURL
		}
	}

	return vm
}

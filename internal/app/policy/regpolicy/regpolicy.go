// internal/app/policy/regpolicy/regpolicy.go
package regpolicy

import (
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/system/routeset"
	"github.com/dalemusser/stratagate/internal/domain/models"
)

// Registration routes. They are only reachable while the policy enables them.
var (
	RegisterPage   = routeset.Route{Method: http.MethodGet, Pattern: "/register"}
	RegisterSubmit = routeset.Route{Method: http.MethodPost, Pattern: "/auth/register"}
)

// Routes returns every route the policy can enable.
func Routes() routeset.Set {
	return routeset.NewSet(RegisterPage, RegisterSubmit)
}

// Enabled reports whether self-registration is open under s.
// Registration is offered only while email verification is enforced.
func Enabled(s models.Settings) bool {
	return s.ForceVerify
}

// Desired returns the registration routes that should be active under s.
func Desired(s models.Settings) routeset.Set {
	if !Enabled(s) {
		return routeset.NewSet()
	}
	return Routes()
}

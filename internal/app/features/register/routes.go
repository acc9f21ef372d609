// internal/app/features/register/routes.go
package register

import (
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/policy/regpolicy"
	"github.com/dalemusser/stratagate/internal/app/system/routeset"
)

// RegisterRoutes hands the registration handlers to the dynamic route table.
// They stay unreachable until the registration policy enables them.
func RegisterRoutes(tbl *routeset.Table, h *Handler) {
	tbl.Register(regpolicy.RegisterPage, http.HandlerFunc(h.ServeRegister))
	tbl.Register(regpolicy.RegisterSubmit, http.HandlerFunc(h.HandleRegister))
}

// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/stratagate/internal/app/features/errors"
	"github.com/dalemusser/stratagate/internal/app/system/auditlog"
	"github.com/dalemusser/stratagate/internal/app/system/viewdata"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
}

type Handler struct {
	Accounts Registrar
	Site     viewdata.SiteInfoSource
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(accounts Registrar, site viewdata.SiteInfoSource, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: accounts,
		Site:     site,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
	}
}

type registerFormData struct {
	viewdata.BaseVM
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM: viewdata.NewBaseVM(r, h.Site, "Create account", "/login"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/register                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	ctx := r.Context()
	u, err := h.Accounts.Register(ctx, username, email, password)
	switch {
	case err == nil:
		h.AuditLog.UserRegistered(ctx, r, u.ID, u.Username, !u.Verified)
		if u.Verified {
			redirect(w, r, "/login?success="+viewdata.SuccessAccountCreated)
			return
		}
		redirect(w, r, "/login?success="+viewdata.SuccessAccountCreateEmailSent)

	case errors.Is(err, autherr.ErrAlreadyExists):
		h.AuditLog.RegistrationFailed(ctx, r, username, "already exists")
		redirect(w, r, "/register?error="+viewdata.ErrorUserExists)

	case errors.Is(err, autherr.ErrInvalidInput):
		h.AuditLog.RegistrationFailed(ctx, r, username, autherr.Message(err, "invalid input"))
		redirect(w, r, "/register?error="+viewdata.ErrorRegistrationFailed)

	default:
		// The account may already be stored when only the email failed.
		if u != nil {
			h.AuditLog.UserRegistered(ctx, r, u.ID, u.Username, !u.Verified)
		} else {
			h.AuditLog.RegistrationFailed(ctx, r, username, "internal error")
		}
		h.ErrLog.Record(r, "registration failed", err)
		redirect(w, r, "/register?error="+viewdata.ErrorRegistrationFailed)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, dest string) {
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

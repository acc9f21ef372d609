// internal/app/features/resetpassword/handler.go
package resetpassword

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/dalemusser/stratagate/internal/app/features/errors"
	"github.com/dalemusser/stratagate/internal/app/system/auditlog"
	"github.com/dalemusser/stratagate/internal/app/system/viewdata"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Resetter issues and consumes password reset tokens.
type Resetter interface {
	RequestReset(ctx context.Context, email string) error
	CompleteReset(ctx context.Context, token, newPassword string) error
}

type Handler struct {
	Accounts Resetter
	Site     viewdata.SiteInfoSource
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(accounts Resetter, site viewdata.SiteInfoSource, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: accounts,
		Site:     site,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
	}
}

type requestFormData struct {
	viewdata.BaseVM
}

type resetFormData struct {
	viewdata.BaseVM
	Token string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/reset-password                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRequest(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "reset_request", requestFormData{
		BaseVM: viewdata.NewBaseVM(r, h.Site, "Reset password", "/login"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/reset-password                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/auth/reset-password")
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	ctx := r.Context()

	err := h.Accounts.RequestReset(ctx, email)
	switch {
	case err == nil:
		h.AuditLog.PasswordResetRequested(ctx, r, email, true, "")
		redirect(w, r, "/login?success="+viewdata.SuccessPasswordSent)
	case errors.Is(err, autherr.ErrNotFound):
		h.AuditLog.PasswordResetRequested(ctx, r, email, false, "email not found")
		redirect(w, r, "/auth/reset-password?error="+viewdata.ErrorEmailNotFound)
	default:
		h.AuditLog.PasswordResetRequested(ctx, r, email, false, "internal error")
		h.ErrLog.Record(r, "password reset request failed", err)
		redirect(w, r, "/auth/reset-password?error="+viewdata.ErrorPasswordResetFailed)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/reset/{token}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeReset(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "reset_form", resetFormData{
		BaseVM: viewdata.NewBaseVM(r, h.Site, "Choose a new password", "/login"),
		Token:  chi.URLParam(r, "token"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/reset/{token}                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/auth/reset/"+url.PathEscape(token))
		return
	}
	password := r.FormValue("password")
	ctx := r.Context()

	err := h.Accounts.CompleteReset(ctx, token, password)
	switch {
	case err == nil:
		h.AuditLog.PasswordResetCompleted(ctx, r)
		redirect(w, r, "/login?success="+viewdata.SuccessPasswordReset+"&state=success")
	case errors.Is(err, autherr.ErrInvalidInput):
		redirect(w, r, "/auth/reset/"+url.PathEscape(token)+"?error="+viewdata.ErrorPasswordRequired)
	case errors.Is(err, autherr.ErrInvalidToken):
		h.AuditLog.PasswordResetFailed(ctx, r, "invalid token")
		redirect(w, r, "/login?error="+viewdata.ErrorPasswordReset+"&state=failed")
	default:
		h.AuditLog.PasswordResetFailed(ctx, r, "internal error")
		h.ErrLog.Record(r, "password reset failed", err)
		redirect(w, r, "/login?error="+viewdata.ErrorPasswordReset+"&state=failed")
	}
}

func redirect(w http.ResponseWriter, r *http.Request, dest string) {
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// internal/app/features/verify/handler.go
package verify

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/stratagate/internal/app/features/errors"
	"github.com/dalemusser/stratagate/internal/app/system/auditlog"
	"github.com/dalemusser/stratagate/internal/app/system/viewdata"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Verifier consumes verification tokens and issues new ones.
type Verifier interface {
	Verify(ctx context.Context, token string) error
	Resend(ctx context.Context, email string) error
}

type Handler struct {
	Accounts Verifier
	Site     viewdata.SiteInfoSource
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(accounts Verifier, site viewdata.SiteInfoSource, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: accounts,
		Site:     site,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
	}
}

type resendFormData struct {
	viewdata.BaseVM
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /verify/{token}                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	ctx := r.Context()

	err := h.Accounts.Verify(ctx, token)
	switch {
	case err == nil:
		h.AuditLog.EmailVerified(ctx, r)
		redirect(w, r, "/login?success="+viewdata.SuccessEmailVerified)
	case errors.Is(err, autherr.ErrInvalidToken):
		h.AuditLog.VerificationFailed(ctx, r, "invalid token")
		redirect(w, r, "/login?error="+viewdata.ErrorInvalidVerificationToken)
	default:
		h.AuditLog.VerificationFailed(ctx, r, "internal error")
		h.ErrLog.Record(r, "email verification failed", err)
		redirect(w, r, "/login?error="+viewdata.ErrorInvalidVerificationToken)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /resend-verification                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeResend(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "verify_resend", resendFormData{
		BaseVM: viewdata.NewBaseVM(r, h.Site, "Resend verification email", "/login"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /resend-verification                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/resend-verification")
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	ctx := r.Context()

	err := h.Accounts.Resend(ctx, email)
	switch {
	case err == nil:
		h.AuditLog.VerificationResent(ctx, r, email, true, "")
		redirect(w, r, "/login?success="+viewdata.SuccessVerificationEmailResent)
	case errors.Is(err, autherr.ErrNotFound):
		h.AuditLog.VerificationResent(ctx, r, email, false, "email not found")
		redirect(w, r, "/resend-verification?error="+viewdata.ErrorUserNotFound)
	case errors.Is(err, autherr.ErrAlreadyVerified):
		h.AuditLog.VerificationResent(ctx, r, email, false, "already verified")
		redirect(w, r, "/login?error="+viewdata.ErrorUserAlreadyVerified)
	default:
		h.AuditLog.VerificationResent(ctx, r, email, false, "internal error")
		h.ErrLog.Record(r, "resend verification failed", err)
		redirect(w, r, "/resend-verification?error="+viewdata.ErrorResendFailed)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, dest string) {
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/dalemusser/stratagate/internal/app/features/errors"
	"github.com/dalemusser/stratagate/internal/app/system/auditlog"
	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/dalemusser/stratagate/internal/app/system/authn"
	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/stratagate/internal/app/system/viewdata"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// Authenticator checks a login attempt.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, password string) authn.Outcome
}

type Handler struct {
	Auth       Authenticator
	SessionMgr *auth.SessionManager
	Site       viewdata.SiteInfoSource
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(authenticator Authenticator, sessionMgr *auth.SessionManager, site viewdata.SiteInfoSource, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:       authenticator,
		SessionMgr: sessionMgr,
		Site:       site,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Identifier string
	ReturnURL  string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, h.Site, "Sign in", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/login                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	identifier := strings.TrimSpace(r.FormValue("identifier"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	ctx := r.Context()
	out := h.Auth.Authenticate(ctx, identifier, password)
	metrics.AuthAttempt(out.Code())

	if !out.OK() {
		h.auditFailure(ctx, r, identifier, out)
		h.redirectWithError(w, r, out.Code(), ret)
		return
	}

	if err := h.SessionMgr.Serialize(w, r, out.User); err != nil {
		h.ErrLog.Record(r, "save session failed", err)
		h.redirectWithError(w, r, authn.CodeLoginFailed, ret)
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, out.User.ID, out.User.Username)

	dest := urlutil.SafeReturn(ret, "", "/dashboard")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) auditFailure(ctx context.Context, r *http.Request, identifier string, out authn.Outcome) {
	switch {
	case out.NeedsVerification():
		h.AuditLog.LoginFailedUnverified(ctx, r, out.Matched.ID, out.Matched.Username)
	case errors.Is(out.Err, autherr.ErrNoSuchUser):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, identifier)
	case errors.Is(out.Err, autherr.ErrBadPassword):
		h.AuditLog.LoginFailedWrongPassword(ctx, r, out.Matched.ID, out.Matched.Username)
	default:
		h.ErrLog.Record(r, "login failed", out.Err)
	}
}

func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, code, ret string) {
	v := url.Values{"error": {code}}
	if ret != "" {
		v.Set("return", ret)
	}
	http.Redirect(w, r, "/login?"+v.Encode(), http.StatusSeeOther)
}

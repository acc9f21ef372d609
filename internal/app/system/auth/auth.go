package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "stratagate-session"

	// usernameKey is the only value a session carries.
	usernameKey = "username"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the live view of the signed-in account injected into
// r.Context(). It is rebuilt from the store on every request.
type SessionUser struct {
	ID       string
	Username string
	Email    string
	IsAdmin  bool
	Verified bool
}

// UserFetcher resolves a session username to the current account. It
// returns autherr.ErrSessionUserMissing when the account no longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, username string) (*SessionUser, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context as LoadSessionUser would.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager stores the signed-in username in a gorilla/sessions cookie
// and reconstitutes the user from the store on each request.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	logger  *zap.Logger
}

// NewSessionManager creates a cookie-backed session manager. The `secure`
// flag controls whether cookies are marked Secure and which SameSite mode is
// used. maxAge of zero leaves the cookie as a browser-session cookie.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	if opts.MaxAge > 0 {
		store.MaxAge(opts.MaxAge)
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// SetUserFetcher sets the lookup used by Deserialize and LoadSessionUser.
func (m *SessionManager) SetUserFetcher(f UserFetcher) {
	m.fetcher = f
}

// Store returns the underlying cookie store.
func (m *SessionManager) Store() *sessions.CookieStore {
	return m.store
}

// Name returns the session cookie name.
func (m *SessionManager) Name() string {
	return m.name
}

// GetSession returns the request's session. On a decode error (tampered or
// rotated-key cookie) it still returns a usable fresh session together with
// the error.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.name)
}

// Serialize establishes a session for u. Only the username is stored.
func (m *SessionManager) Serialize(w http.ResponseWriter, r *http.Request, u *models.User) error {
	sess, err := m.GetSession(r)
	if err != nil {
		m.logSessionError(err)
	}
	sess.Values = map[interface{}]interface{}{usernameKey: u.Username}
	sess.Options.MaxAge = m.store.Options.MaxAge
	return sess.Save(r, w)
}

// SessionUsername returns the username carried by the request's session.
func (m *SessionManager) SessionUsername(r *http.Request) (string, bool) {
	sess, err := m.GetSession(r)
	if err != nil {
		m.logSessionError(err)
		return "", false
	}
	name, ok := sess.Values[usernameKey].(string)
	return name, ok && name != ""
}

// Deserialize looks up the session's username. Every call hits the store.
func (m *SessionManager) Deserialize(ctx context.Context, username string) (*SessionUser, error) {
	if m.fetcher == nil {
		return nil, errors.New("auth: no user fetcher configured")
	}
	if username == "" {
		return nil, autherr.ErrSessionUserMissing
	}
	return m.fetcher.FetchUser(ctx, username)
}

// Clear ends the session by expiring the cookie.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.GetSession(r)
	if err != nil {
		m.logSessionError(err)
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are logged in.
// A session whose user has disappeared is cleared and the request proceeds
// anonymously. A store failure also proceeds anonymously.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := m.SessionUsername(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		u, err := m.Deserialize(r.Context(), username)
		switch {
		case err == nil:
			r = withUser(r, u)
		case errors.Is(err, autherr.ErrSessionUserMissing):
			m.logger.Info("session user no longer exists; clearing session",
				zap.String("username", username))
			if cerr := m.Clear(w, r); cerr != nil {
				m.logger.Warn("failed to clear session", zap.Error(cerr))
			}
		default:
			m.logger.Error("session user lookup failed", zap.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		ret := url.QueryEscape(currentURI(r))

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", "/login?return="+ret)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if wantsHTML(r) {
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}

		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// helpers

func (m *SessionManager) logSessionError(err error) {
	var scErr securecookie.Error
	if errors.As(err, &scErr) && scErr.IsDecode() {
		m.logger.Warn("session cookie invalid, using fresh session", zap.Error(err))
		return
	}
	m.logger.Error("session store error, using fresh session", zap.Error(err))
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}

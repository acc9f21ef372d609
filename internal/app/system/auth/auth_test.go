package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"go.uber.org/zap"
)

// fakeFetcher serves users from a map and counts lookups.
type fakeFetcher struct {
	mu    sync.Mutex
	users map[string]*auth.SessionUser
	err   error
	calls int
}

func (f *fakeFetcher) FetchUser(ctx context.Context, username string) (*auth.SessionUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, autherr.ErrSessionUserMissing
	}
	cp := *u
	return &cp, nil
}

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// signIn serializes u and returns the resulting session cookie.
func signIn(t *testing.T, sm *auth.SessionManager, u *models.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.Serialize(rec, httptest.NewRequest("POST", "/auth/login", nil), u); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// captureUser runs LoadSessionUser and returns the user it injected.
func captureUser(sm *auth.SessionManager, cookie *http.Cookie) (*auth.SessionUser, *httptest.ResponseRecorder) {
	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/dashboard", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "", "", 0, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestSerialize_StoresOnlyUsername(t *testing.T) {
	sm := newTestSessionManager(t)
	fetcher := &fakeFetcher{users: map[string]*auth.SessionUser{
		"alice": {ID: "u1", Username: "alice", Email: "a@x.com", Verified: true},
	}}
	sm.SetUserFetcher(fetcher)

	cookie := signIn(t, sm, &models.User{ID: "u1", Username: "alice", Email: "a@x.com", PasswordHash: "secret-hash"})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	sess, err := sm.GetSession(req)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(sess.Values) != 1 {
		t.Errorf("session values: got %v, want only the username", sess.Values)
	}
	if sess.Values["username"] != "alice" {
		t.Errorf("username: got %v, want alice", sess.Values["username"])
	}
}

func TestLoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	fetcher := &fakeFetcher{users: map[string]*auth.SessionUser{
		"alice": {ID: "u1", Username: "alice", Email: "a@x.com", Verified: true},
	}}
	sm.SetUserFetcher(fetcher)

	cookie := signIn(t, sm, &models.User{ID: "u1", Username: "alice"})

	u, _ := captureUser(sm, cookie)
	if u == nil {
		t.Fatal("expected user in context")
	}
	if u.ID != "u1" || u.Email != "a@x.com" {
		t.Errorf("user: got %+v", u)
	}
}

func TestLoadSessionUser_FreshLookupEachRequest(t *testing.T) {
	sm := newTestSessionManager(t)
	fetcher := &fakeFetcher{users: map[string]*auth.SessionUser{
		"alice": {ID: "u1", Username: "alice", Email: "old@x.com"},
	}}
	sm.SetUserFetcher(fetcher)
	cookie := signIn(t, sm, &models.User{ID: "u1", Username: "alice"})

	captureUser(sm, cookie)

	fetcher.mu.Lock()
	fetcher.users["alice"].Email = "new@x.com"
	fetcher.mu.Unlock()

	u, _ := captureUser(sm, cookie)
	if u == nil || u.Email != "new@x.com" {
		t.Errorf("expected edited account to be observed on the next request, got %+v", u)
	}
	if fetcher.calls != 2 {
		t.Errorf("lookups: got %d, want 2", fetcher.calls)
	}
}

func TestLoadSessionUser_DeletedUserTreatedAsLoggedOut(t *testing.T) {
	sm := newTestSessionManager(t)
	fetcher := &fakeFetcher{users: map[string]*auth.SessionUser{
		"alice": {ID: "u1", Username: "alice"},
	}}
	sm.SetUserFetcher(fetcher)
	cookie := signIn(t, sm, &models.User{ID: "u1", Username: "alice"})

	fetcher.mu.Lock()
	delete(fetcher.users, "alice")
	fetcher.mu.Unlock()

	u, rec := captureUser(sm, cookie)
	if u != nil {
		t.Errorf("expected no user for deleted account, got %+v", u)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the stale session cookie to be cleared")
	}
}

func TestLoadSessionUser_StoreFailureProceedsAnonymously(t *testing.T) {
	sm := newTestSessionManager(t)
	fetcher := &fakeFetcher{err: errors.New("store down")}
	sm.SetUserFetcher(fetcher)
	cookie := signIn(t, sm, &models.User{ID: "u1", Username: "alice"})

	u, rec := captureUser(sm, cookie)
	if u != nil {
		t.Error("expected anonymous request when lookup fails")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestLoadSessionUser_TamperedCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(&fakeFetcher{users: map[string]*auth.SessionUser{}})

	u, _ := captureUser(sm, &http.Cookie{Name: "test-session", Value: "garbage"})
	if u != nil {
		t.Error("expected no user for tampered cookie")
	}
}

func TestDeserialize_Missing(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(&fakeFetcher{users: map[string]*auth.SessionUser{}})

	_, err := sm.Deserialize(context.Background(), "ghost")
	if !errors.Is(err, autherr.ErrSessionUserMissing) {
		t.Errorf("got %v, want ErrSessionUserMissing", err)
	}
}

func TestClear(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(&fakeFetcher{users: map[string]*auth.SessionUser{
		"alice": {ID: "u1", Username: "alice"},
	}})
	cookie := signIn(t, sm, &models.User{ID: "u1", Username: "alice"})

	req := httptest.NewRequest("GET", "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	if err := sm.Clear(rec, req); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	var expired *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			expired = c
		}
	}
	if expired == nil || expired.MaxAge >= 0 {
		t.Fatalf("expected an expired session cookie, got %+v", expired)
	}
}

func TestRequireSignedIn_NoUser_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	}))

	req := httptest.NewRequest("GET", "/dashboard?tab=1", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "/login?return=") {
		t.Errorf("expected redirect to /login, got %q", location)
	}
}

func TestRequireSignedIn_NoUser_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_NoUser_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	hxRedirect := rec.Header().Get("HX-Redirect")
	if !strings.HasPrefix(hxRedirect, "/login") {
		t.Errorf("expected HX-Redirect to /login, got %q", hxRedirect)
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := auth.WithTestUser(httptest.NewRequest("GET", "/dashboard", nil), &auth.SessionUser{Username: "alice"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	user, ok := auth.CurrentUser(req)

	if ok {
		t.Error("expected ok to be false when no user in context")
	}
	if user != nil {
		t.Error("expected user to be nil when no user in context")
	}
}

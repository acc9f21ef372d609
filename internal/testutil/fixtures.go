package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/stratagate/internal/app/store/kv"
	settingsstore "github.com/dalemusser/stratagate/internal/app/store/settings"
	userstore "github.com/dalemusser/stratagate/internal/app/store/users"
	"github.com/dalemusser/stratagate/internal/app/system/authutil"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	store    kv.Store
	users    *userstore.Store
	settings *settingsstore.Store
	t        *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test store.
func NewFixtures(t *testing.T, store kv.Store) *Fixtures {
	t.Helper()
	return &Fixtures{
		store:    store,
		users:    userstore.New(store),
		settings: settingsstore.New(store),
		t:        t,
	}
}

// Store returns the underlying key-value store for direct access in tests.
func (f *Fixtures) Store() kv.Store {
	return f.store
}

// Users returns a user store over the fixture's backend.
func (f *Fixtures) Users() *userstore.Store {
	return f.users
}

// CreateUser creates a user with a hashed password.
// Unverified users get a pending verification token "verify-<username>".
func (f *Fixtures) CreateUser(ctx context.Context, username, email, password string, verified bool) models.User {
	f.t.Helper()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	u := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Verified:     verified,
	}
	if !verified {
		tok := "verify-" + username
		u.VerificationToken = &tok
	}

	created, err := f.users.Insert(ctx, u)
	if err != nil {
		f.t.Fatalf("failed to create user %q: %v", username, err)
	}
	return *created
}

// GetUser reloads a user by username, failing the test if it is missing.
func (f *Fixtures) GetUser(ctx context.Context, username string) models.User {
	f.t.Helper()

	u, err := f.users.ByUsername(ctx, username)
	if err != nil {
		f.t.Fatalf("failed to load user %q: %v", username, err)
	}
	return *u
}

// SetForceVerify writes the settings document with the given flag.
func (f *Fixtures) SetForceVerify(ctx context.Context, on bool) {
	f.t.Helper()

	if err := f.settings.Save(ctx, models.Settings{ForceVerify: on}); err != nil {
		f.t.Fatalf("failed to save settings: %v", err)
	}
}

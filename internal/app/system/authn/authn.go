// Package authn verifies local credentials.
//
// Authentication is read-only: it looks the user up, applies the
// verification gate from the current settings, then compares the password.
// Each failure is a distinct autherr value so callers can tell an
// unverified account apart from bad credentials.
package authn

import (
	"context"
	"errors"

	"github.com/dalemusser/stratagate/internal/app/system/authutil"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/stratagate/internal/domain/models"
)

// Outcome codes used in login redirects.
const (
	CodeSuccess            = "success"
	CodeUserNotVerified    = "UserNotVerified"
	CodeInvalidCredentials = "InvalidCredentials"
	CodeLoginFailed        = "LoginFailed"
)

// UserLookup resolves a login identifier to a user.
type UserLookup interface {
	ByIdentifier(ctx context.Context, identifier string) (*models.User, error)
}

// SettingsSource returns the current settings.
type SettingsSource interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Outcome is the result of one authentication attempt. Exactly one of User
// and Err is set. Matched is the user the identifier resolved to, set even
// when the attempt failed afterwards; it is for auditing only.
type Outcome struct {
	User    *models.User
	Matched *models.User
	Err     error
}

// OK reports whether the credentials were accepted.
func (o Outcome) OK() bool {
	return o.Err == nil && o.User != nil
}

// NeedsVerification reports whether the attempt was refused only because the
// account's email has not been verified.
func (o Outcome) NeedsVerification() bool {
	return errors.Is(o.Err, autherr.ErrVerificationRequired)
}

// Code returns the machine-readable outcome for the HTTP layer.
func (o Outcome) Code() string {
	switch {
	case o.OK():
		return CodeSuccess
	case o.NeedsVerification():
		return CodeUserNotVerified
	case errors.Is(o.Err, autherr.ErrNotFound), errors.Is(o.Err, autherr.ErrInvalidCredentials):
		return CodeInvalidCredentials
	default:
		return CodeLoginFailed
	}
}

// Authenticator checks identifier/password pairs.
type Authenticator struct {
	users    UserLookup
	settings SettingsSource
}

// New creates an Authenticator.
func New(users UserLookup, settings SettingsSource) *Authenticator {
	return &Authenticator{users: users, settings: settings}
}

// Authenticate checks the credentials. identifier is matched against email
// when it contains '@' and against username otherwise.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string) Outcome {
	if identifier == "" {
		return Outcome{Err: autherr.ErrNoSuchUser}
	}

	u, err := a.users.ByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return Outcome{Err: autherr.ErrNoSuchUser}
		}
		return Outcome{Err: autherr.StoreFailure("authenticate", err)}
	}

	settings, err := a.settings.Get(ctx)
	if err != nil {
		return Outcome{Err: autherr.StoreFailure("authenticate", err)}
	}
	if settings.ForceVerify && !u.Verified {
		return Outcome{Matched: u, Err: autherr.ErrEmailNotVerified}
	}

	if !authutil.CheckPassword(password, u.PasswordHash) {
		return Outcome{Matched: u, Err: autherr.ErrBadPassword}
	}
	return Outcome{User: u, Matched: u}
}

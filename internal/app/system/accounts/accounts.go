// Package accounts owns the account lifecycle: registration, email
// verification and password reset.
//
// It is the only code that changes a user's Verified, VerificationToken and
// ResetToken fields. Verification and reset tokens live in separate fields
// and are only ever matched against their own field.
package accounts

import (
	"context"
	"errors"

	"github.com/dalemusser/stratagate/internal/app/system/authutil"
	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/stratagate/internal/app/system/tokens"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"go.uber.org/zap"
)

// Lifecycle event names used in metrics.
const (
	EventRegister      = "register"
	EventVerify        = "verify"
	EventResend        = "resend_verification"
	EventRequestReset  = "request_reset"
	EventCompleteReset = "complete_reset"
)

// UserRepo is the slice of the user store the lifecycle needs.
type UserRepo interface {
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByVerificationToken(ctx context.Context, token string) (*models.User, error)
	ByResetToken(ctx context.Context, token string) (*models.User, error)
	Exists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	Insert(ctx context.Context, u models.User) (*models.User, error)
	Update(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error)
}

// SettingsSource returns the current settings.
type SettingsSource interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Notifier sends the lifecycle emails.
type Notifier interface {
	SendWelcome(ctx context.Context, u *models.User) error
	SendVerification(ctx context.Context, u *models.User, token string) error
	SendReset(ctx context.Context, u *models.User, token string) error
}

// Manager runs the account lifecycle operations.
type Manager struct {
	users    UserRepo
	settings SettingsSource
	notify   Notifier
	logger   *zap.Logger
	newToken func() string
}

// New creates a Manager.
func New(users UserRepo, settings SettingsSource, notify Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		users:    users,
		settings: settings,
		notify:   notify,
		logger:   logger,
		newToken: tokens.Generate,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Registration                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// Register creates an account.
//
// When settings.ForceVerify is on the account starts unverified and a
// verification email is sent; otherwise it is verified at creation. The
// user is persisted before any email goes out and is not removed if sending
// fails: in that case the returned user is non-nil alongside an
// autherr.ErrMail error. The verification token is stored only after its
// email was handed to the transport.
func (m *Manager) Register(ctx context.Context, username, email, password string) (u *models.User, err error) {
	defer func() { metrics.Lifecycle(EventRegister, err) }()

	in := authutil.RegistrationInput{Username: username, Email: email, Password: password}
	if verr := in.Validate(); verr != nil {
		return nil, autherr.Invalid("register", verr.Error())
	}

	usernameTaken, emailTaken, err := m.users.Exists(ctx, username, email)
	if err != nil {
		return nil, m.storeFailure("register: check existing", err)
	}
	if usernameTaken {
		return nil, autherr.ErrUserExists
	}
	if emailTaken {
		return nil, autherr.ErrEmailExists
	}

	settings, err := m.settings.Get(ctx)
	if err != nil {
		return nil, m.storeFailure("register: load settings", err)
	}
	requireVerify := settings.ForceVerify

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return nil, autherr.Invalid("register", err.Error())
	}

	created, err := m.users.Insert(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Verified:     !requireVerify,
	})
	if err != nil {
		if errors.Is(err, autherr.ErrAlreadyExists) {
			return nil, err
		}
		return nil, m.storeFailure("register: insert", err)
	}

	welcomeErr := m.notify.SendWelcome(ctx, created)
	if welcomeErr != nil {
		m.logger.Error("welcome email failed",
			zap.String("user_id", created.ID), zap.Error(welcomeErr))
	}

	var token string
	var verifyErr error
	if requireVerify {
		token = m.newToken()
		verifyErr = m.notify.SendVerification(ctx, created, token)
		if verifyErr != nil {
			m.logger.Error("verification email failed",
				zap.String("user_id", created.ID), zap.Error(verifyErr))
		}
	}

	updated, err := m.users.Update(ctx, created.ID, func(u *models.User) error {
		u.WelcomeEmailSent = true
		if requireVerify && verifyErr == nil && !u.Verified {
			u.VerificationToken = &token
		}
		return nil
	})
	if err != nil {
		return created, m.storeFailure("register: record emails", err)
	}

	if mailErr := errors.Join(welcomeErr, verifyErr); mailErr != nil {
		return updated, autherr.MailFailure("register", mailErr)
	}

	m.logger.Info("user registered",
		zap.String("user_id", updated.ID),
		zap.String("username", updated.Username),
		zap.Bool("verification_required", requireVerify))
	return updated, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Email verification                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// Verify consumes a verification token. Unknown tokens return
// autherr.ErrInvalidVerificationToken and change nothing.
func (m *Manager) Verify(ctx context.Context, token string) (err error) {
	defer func() { metrics.Lifecycle(EventVerify, err) }()

	u, err := m.users.ByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return autherr.ErrInvalidVerificationToken
		}
		return m.storeFailure("verify: lookup", err)
	}

	_, err = m.users.Update(ctx, u.ID, func(u *models.User) error {
		// The token may have been replaced since the lookup.
		if u.VerificationToken == nil || *u.VerificationToken != token {
			return autherr.ErrInvalidVerificationToken
		}
		u.Verified = true
		u.VerificationToken = nil
		return nil
	})
	if err != nil {
		if errors.Is(err, autherr.ErrInvalidToken) || errors.Is(err, autherr.ErrNotFound) {
			return autherr.ErrInvalidVerificationToken
		}
		return m.storeFailure("verify: update", err)
	}

	m.logger.Info("email verified", zap.String("user_id", u.ID))
	return nil
}

// Resend issues a new verification token for the account with the given
// email, replacing any previous one, and emails it.
func (m *Manager) Resend(ctx context.Context, email string) (err error) {
	defer func() { metrics.Lifecycle(EventResend, err) }()

	u, err := m.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return autherr.ErrEmailNotFound
		}
		return m.storeFailure("resend: lookup", err)
	}
	if u.Verified {
		return autherr.ErrUserAlreadyVerified
	}

	token := m.newToken()
	updated, err := m.users.Update(ctx, u.ID, func(u *models.User) error {
		if u.Verified {
			return autherr.ErrUserAlreadyVerified
		}
		u.VerificationToken = &token
		return nil
	})
	if err != nil {
		if errors.Is(err, autherr.ErrAlreadyVerified) {
			return autherr.ErrUserAlreadyVerified
		}
		return m.storeFailure("resend: update", err)
	}

	if err := m.notify.SendVerification(ctx, updated, token); err != nil {
		m.logger.Error("verification email failed",
			zap.String("user_id", updated.ID), zap.Error(err))
		return autherr.MailFailure("resend", err)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Password reset                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// RequestReset stores a new reset token on the account with the given email,
// replacing any pending one, and emails it. Unknown emails return
// autherr.ErrEmailNotFound and change nothing.
func (m *Manager) RequestReset(ctx context.Context, email string) (err error) {
	defer func() { metrics.Lifecycle(EventRequestReset, err) }()

	u, err := m.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return autherr.ErrEmailNotFound
		}
		return m.storeFailure("request reset: lookup", err)
	}

	token := m.newToken()
	updated, err := m.users.Update(ctx, u.ID, func(u *models.User) error {
		u.ResetToken = &token
		return nil
	})
	if err != nil {
		return m.storeFailure("request reset: update", err)
	}

	if err := m.notify.SendReset(ctx, updated, token); err != nil {
		m.logger.Error("reset email failed",
			zap.String("user_id", updated.ID), zap.Error(err))
		return autherr.MailFailure("request reset", err)
	}
	return nil
}

// CompleteReset consumes a reset token and sets a new password. The token is
// checked before the password, and removed from the stored record on success.
func (m *Manager) CompleteReset(ctx context.Context, token, newPassword string) (err error) {
	defer func() { metrics.Lifecycle(EventCompleteReset, err) }()

	u, err := m.users.ByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return autherr.ErrInvalidResetToken
		}
		return m.storeFailure("complete reset: lookup", err)
	}

	if newPassword == "" {
		return autherr.Invalid("complete reset", authutil.ErrPasswordRequired.Error())
	}

	hash, err := authutil.HashPassword(newPassword)
	if err != nil {
		return autherr.Invalid("complete reset", err.Error())
	}

	_, err = m.users.Update(ctx, u.ID, func(u *models.User) error {
		if u.ResetToken == nil || *u.ResetToken != token {
			return autherr.ErrInvalidResetToken
		}
		u.PasswordHash = hash
		u.ResetToken = nil
		return nil
	})
	if err != nil {
		if errors.Is(err, autherr.ErrInvalidToken) || errors.Is(err, autherr.ErrNotFound) {
			return autherr.ErrInvalidResetToken
		}
		return m.storeFailure("complete reset: update", err)
	}

	m.logger.Info("password reset completed", zap.String("user_id", u.ID))
	return nil
}

func (m *Manager) storeFailure(op string, err error) error {
	err = autherr.StoreFailure(op, err)
	m.logger.Error("account store operation failed", zap.String("op", op), zap.Error(err))
	return err
}

// internal/app/system/mailer/dispatcher.go
package mailer

import (
	"context"
	"net/url"
	"strings"

	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// SiteInfoSource supplies the display name used in email subjects.
type SiteInfoSource interface {
	SiteInfo(ctx context.Context) (models.SiteInfo, error)
}

// Link paths, relative to the base URL.
const (
	VerifyPath = "/verify/"
	ResetPath  = "/auth/reset/"
	LoginPath  = "/login"
)

// Dispatcher builds the transactional emails of the account lifecycle and
// hands them to a Sender. Each send is bounded by timeouts.Mail(); failures
// are returned as autherr.ErrMail (or ErrTimeout).
type Dispatcher struct {
	sender  Sender
	site    SiteInfoSource
	baseURL string
	logger  *zap.Logger
	strict  *bluemonday.Policy
}

// NewDispatcher creates a Dispatcher. site may be nil, in which case
// models.DefaultSiteName is used.
func NewDispatcher(sender Sender, site SiteInfoSource, baseURL string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		site:    site,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		strict:  bluemonday.StrictPolicy(),
	}
}

// VerifyLink returns the absolute verification link for token.
func (d *Dispatcher) VerifyLink(token string) string {
	return d.baseURL + VerifyPath + url.PathEscape(token)
}

// ResetLink returns the absolute password reset link for token.
func (d *Dispatcher) ResetLink(token string) string {
	return d.baseURL + ResetPath + url.PathEscape(token)
}

// SendWelcome sends the welcome email to u.
func (d *Dispatcher) SendWelcome(ctx context.Context, u *models.User) error {
	e := BuildWelcomeEmail(WelcomeEmailData{
		SiteName: d.siteName(ctx),
		Username: d.clean(u.Username),
		LoginURL: d.baseURL + LoginPath,
	})
	return d.send(ctx, "send welcome email", u.Email, e)
}

// SendVerification sends a link embedding the verification token.
func (d *Dispatcher) SendVerification(ctx context.Context, u *models.User, token string) error {
	e := BuildVerificationEmail(LinkEmailData{
		SiteName: d.siteName(ctx),
		Username: d.clean(u.Username),
		Link:     d.VerifyLink(token),
	})
	return d.send(ctx, "send verification email", u.Email, e)
}

// SendReset sends a link embedding the reset token.
func (d *Dispatcher) SendReset(ctx context.Context, u *models.User, token string) error {
	e := BuildResetEmail(LinkEmailData{
		SiteName: d.siteName(ctx),
		Username: d.clean(u.Username),
		Link:     d.ResetLink(token),
	})
	return d.send(ctx, "send reset email", u.Email, e)
}

func (d *Dispatcher) send(ctx context.Context, op, to string, e Email) error {
	e.To = to
	ctx, cancel := context.WithTimeout(ctx, timeouts.Mail())
	defer cancel()

	if err := d.sender.Send(ctx, e); err != nil {
		return autherr.MailFailure(op, err)
	}
	return nil
}

func (d *Dispatcher) siteName(ctx context.Context) string {
	if d.site == nil {
		return models.DefaultSiteName
	}
	info, err := d.site.SiteInfo(ctx)
	if err != nil {
		d.logger.Warn("site info unavailable for email; using default name", zap.Error(err))
		return models.DefaultSiteName
	}
	return d.clean(info.Name)
}

// clean strips markup from user-controlled strings before they reach a
// plain-text body.
func (d *Dispatcher) clean(s string) string {
	return strings.TrimSpace(d.strict.Sanitize(s))
}

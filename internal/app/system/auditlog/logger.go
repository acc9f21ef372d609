// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/stratagate/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for login and logout events.
	// Values: "all" (store + zap), "db" (store only), "log" (zap only), "off" (disabled)
	Auth string
	// Account controls logging for registration, verification and password reset.
	// Same values as Auth.
	Account string
}

// Logger provides convenience methods for logging audit events.
// It logs to the audit store and to structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when only "log" or "off"
// are configured.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Username != "" {
		fields = append(fields, zap.String("username", event.Username))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAccount:
		setting = l.config.Account
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "log"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) event(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, username string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID, e.Username = userID, username
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a failed login for an unknown identifier.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, identifier string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"identifier": identifier}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a failed login due to a wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID, username string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.UserID, e.Username = userID, username
	e.FailureReason = "wrong password"
	l.Log(ctx, e)
}

// LoginFailedUnverified logs a login refused because the email is not verified.
func (l *Logger) LoginFailedUnverified(ctx context.Context, r *http.Request, userID, username string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAuth, audit.EventLoginFailedUnverified, false)
	e.UserID, e.Username = userID, username
	e.FailureReason = "email not verified"
	l.Log(ctx, e)
}

// Logout logs a logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, username string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAuth, audit.EventLogout, true)
	e.UserID, e.Username = userID, username
	l.Log(ctx, e)
}

// --- Account Lifecycle Events ---

// UserRegistered logs a new self-registered account.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID, username string, verificationRequired bool) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAccount, audit.EventUserRegistered, true)
	e.UserID, e.Username = userID, username
	if verificationRequired {
		e.Details = map[string]string{"verification": "required"}
	}
	l.Log(ctx, e)
}

// RegistrationFailed logs a rejected or failed registration.
func (l *Logger) RegistrationFailed(ctx context.Context, r *http.Request, username, reason string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAccount, audit.EventRegistrationFailed, false)
	e.Username = username
	e.FailureReason = reason
	l.Log(ctx, e)
}

// EmailVerified logs a consumed verification token.
func (l *Logger) EmailVerified(ctx context.Context, r *http.Request) {
	if l == nil {
		return
	}
	l.Log(ctx, l.event(r, audit.CategoryAccount, audit.EventEmailVerified, true))
}

// VerificationFailed logs an unknown verification token.
func (l *Logger) VerificationFailed(ctx context.Context, r *http.Request, reason string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAccount, audit.EventVerificationFailed, false)
	e.FailureReason = reason
	l.Log(ctx, e)
}

// VerificationResent logs a resend request and its outcome.
func (l *Logger) VerificationResent(ctx context.Context, r *http.Request, email string, success bool, reason string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAccount, audit.EventVerificationResent, success)
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// PasswordResetRequested logs a reset request and its outcome.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, email string, success bool, reason string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAccount, audit.EventPasswordResetRequested, success)
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// PasswordResetCompleted logs a consumed reset token.
func (l *Logger) PasswordResetCompleted(ctx context.Context, r *http.Request) {
	if l == nil {
		return
	}
	l.Log(ctx, l.event(r, audit.CategoryAccount, audit.EventPasswordResetCompleted, true))
}

// PasswordResetFailed logs a failed reset consumption.
func (l *Logger) PasswordResetFailed(ctx context.Context, r *http.Request, reason string) {
	if l == nil {
		return
	}
	e := l.event(r, audit.CategoryAccount, audit.EventPasswordResetFailed, false)
	e.FailureReason = reason
	l.Log(ctx, e)
}

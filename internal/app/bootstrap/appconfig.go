// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like ports, TLS,
// logging level and request limits. AppConfig carries everything specific
// to StrataGate: the credential store backend, session cookies, outbound
// mail and the registration policy poll.
type AppConfig struct {
	// Credential store backend: "mongo", "redis" or "memory"
	StoreBackend string

	// MongoDB connection configuration (store_backend=mongo)
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Redis connection configuration (store_backend=redis)
	RedisAddr     string // host:port
	RedisPassword string
	RedisDB       int
	RedisPrefix   string // Key prefix so several deployments can share one Redis

	StoreConnectRetries uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: stratagate-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Email configuration
	MailMode     string // "smtp" sends through MailSMTP*, "log" writes messages to the logger
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@stratagate.local)
	MailFromName string // From display name (e.g., StrataGate)

	// Base URL for email links (verification, password reset)
	BaseURL string // e.g., "https://auth.example.com" or "http://localhost:3000"

	// Registration policy watcher poll interval
	RegistrationPollInterval time.Duration

	// Password hashing
	BcryptCost int

	// Audit logging
	AuditLogAuth    string // Login/logout events: all, db, log, off
	AuditLogAccount string // Registration, verification and reset events: all, db, log, off

	// Operation timeouts
	TimeoutStore time.Duration
	TimeoutMail  time.Duration
}

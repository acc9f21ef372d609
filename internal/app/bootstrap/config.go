// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/stratagate/internal/app/store/kv"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// minSessionKeyLen is the shortest session signing key accepted outside dev.
const minSessionKeyLen = 32

// appConfigKeys defines the configuration keys for StrataGate.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: store_backend, session_name, etc.
//   - Environment variables: STRATAGATE_STORE_BACKEND, STRATAGATE_SESSION_NAME, etc.
//   - Command-line flags: --store_backend, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: kv.BackendMongo, Desc: "Credential store backend: 'mongo', 'redis' or 'memory'"},
	{Name: "store_connect_retries", Default: 5, Desc: "Store ping retries at startup"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "strata_gate", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},

	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address (host:port)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_prefix", Default: kv.DefaultRedisPrefix, Desc: "Redis key prefix"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratagate-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime (e.g., 24h, 30m)"},

	// Email configuration
	{Name: "mail_mode", Default: "log", Desc: "Mail transport: 'smtp' or 'log'"},
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@stratagate.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "StrataGate", Desc: "From display name"},

	// Base URL for email links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for verification and reset links"},

	{Name: "registration_poll_interval", Default: "1s", Desc: "How often the registration policy is re-read (e.g., 1s, 5s)"},
	{Name: "bcrypt_cost", Default: bcrypt.DefaultCost, Desc: "bcrypt work factor for password hashes"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_account", Default: "all", Desc: "Account event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_store", Default: "10s", Desc: "Credential store operation timeout"},
	{Name: "timeout_mail", Default: "30s", Desc: "Outbound mail timeout"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATAGATE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STRATAGATE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend:        appValues.String("store_backend"),
		StoreConnectRetries: uint64(appValues.Int("store_connect_retries")),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		RedisPrefix:   appValues.String("redis_prefix"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		// Email
		MailMode:     appValues.String("mail_mode"),
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		RegistrationPollInterval: appValues.Duration("registration_poll_interval", time.Second),
		BcryptCost:               appValues.Int("bcrypt_cost"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogAccount: appValues.String("audit_log_account"),

		TimeoutStore: appValues.Duration("timeout_store", 10*time.Second),
		TimeoutMail:  appValues.Duration("timeout_mail", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The store backend, its connection settings and the session key are
// checked here so misconfiguration fails before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if !kv.ValidBackend(appCfg.StoreBackend) {
		return fmt.Errorf("invalid store_backend %q (want mongo, redis or memory)", appCfg.StoreBackend)
	}

	switch appCfg.StoreBackend {
	case kv.BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database is required when store_backend=mongo")
		}
	case kv.BackendRedis:
		if appCfg.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required when store_backend=redis")
		}
	case kv.BackendMemory:
		if coreCfg != nil && coreCfg.Env == "prod" {
			logger.Warn("memory store backend in prod: accounts are lost on restart")
		}
	}

	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.SessionKey) < minSessionKeyLen {
		return fmt.Errorf("session_key must be at least %d bytes in prod", minSessionKeyLen)
	}

	switch appCfg.MailMode {
	case "smtp", "log":
	default:
		return fmt.Errorf("invalid mail_mode %q (want smtp or log)", appCfg.MailMode)
	}

	if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if appCfg.RegistrationPollInterval <= 0 {
		return fmt.Errorf("registration_poll_interval must be positive")
	}

	for name, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_account": appCfg.AuditLogAccount} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("invalid %s %q (want all, db, log or off)", name, v)
		}
	}

	return nil
}

// storeOptions maps app config onto kv connection options.
func storeOptions(appCfg AppConfig) kv.Options {
	return kv.Options{
		Backend:          appCfg.StoreBackend,
		MongoURI:         appCfg.MongoURI,
		MongoDatabase:    appCfg.MongoDatabase,
		MongoMaxPoolSize: appCfg.MongoMaxPoolSize,
		RedisAddr:        appCfg.RedisAddr,
		RedisPassword:    appCfg.RedisPassword,
		RedisDB:          appCfg.RedisDB,
		RedisPrefix:      appCfg.RedisPrefix,
		ConnectRetries:   appCfg.StoreConnectRetries,
	}
}

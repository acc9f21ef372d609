// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"sync"

	dashboardfeature "github.com/dalemusser/stratagate/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/stratagate/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratagate/internal/app/features/health"
	homefeature "github.com/dalemusser/stratagate/internal/app/features/home"
	loginfeature "github.com/dalemusser/stratagate/internal/app/features/login"
	logoutfeature "github.com/dalemusser/stratagate/internal/app/features/logout"
	registerfeature "github.com/dalemusser/stratagate/internal/app/features/register"
	resetfeature "github.com/dalemusser/stratagate/internal/app/features/resetpassword"
	verifyfeature "github.com/dalemusser/stratagate/internal/app/features/verify"
	"github.com/dalemusser/stratagate/internal/app/store/audit"
	"github.com/dalemusser/stratagate/internal/app/store/kv"
	settingsstore "github.com/dalemusser/stratagate/internal/app/store/settings"
	userstore "github.com/dalemusser/stratagate/internal/app/store/users"
	"github.com/dalemusser/stratagate/internal/app/system/accounts"
	"github.com/dalemusser/stratagate/internal/app/system/auditlog"
	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/dalemusser/stratagate/internal/app/system/authn"
	"github.com/dalemusser/stratagate/internal/app/system/mailer"
	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/stratagate/internal/app/system/routeset"
	"github.com/dalemusser/stratagate/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Background workers started by BuildHandler and stopped by Shutdown.
var (
	workersMu          sync.Mutex
	registrationWorker *workers.RegistrationWatcher
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, store connection, schema setup, and
// the Startup hook have completed. It boots the template engine, builds the
// router and starts the registration policy watcher, which keeps the
// registration routes in step with the forceVerify setting.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	h, watcher, err := buildRouter(coreCfg, appCfg, deps, newSender(appCfg, logger), logger)
	if err != nil {
		return nil, err
	}

	watcher.Start()
	workersMu.Lock()
	registrationWorker = watcher
	workersMu.Unlock()
	logger.Info("registration policy watcher started", zap.Duration("interval", appCfg.RegistrationPollInterval))

	return h, nil
}

// newSender picks the outbound mail transport.
func newSender(appCfg AppConfig, logger *zap.Logger) mailer.Sender {
	if appCfg.MailMode != "smtp" {
		return mailer.NewLogSender(logger)
	}
	return mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
		Timeout:  appCfg.TimeoutMail,
	}, logger)
}

// buildRouter wires stores, services and features into a chi router. The
// returned watcher is not started.
func buildRouter(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, sender mailer.Sender, logger *zap.Logger) (http.Handler, *workers.RegistrationWatcher, error) {
	store := deps.Conn.Store
	users := userstore.New(store)
	settings := settingsstore.New(store)

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on each request.
	// Deleted users and verification changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(users))

	dispatcher := mailer.NewDispatcher(sender, settings, appCfg.BaseURL, logger)
	accountMgr := accounts.New(users, settings, dispatcher, logger)
	authenticator := authn.New(users, settings)

	auditLog := auditlog.New(audit.New(store), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Account: appCfg.AuditLogAccount,
	})

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Registration routes live in a table that the watcher swaps at runtime.
	// The table is the router's NotFound handler, so a disabled route is a 404.
	regRoutes := routeset.New(http.HandlerFunc(errorsfeature.NotFound), logger)
	registerHandler := registerfeature.NewHandler(accountMgr, settings, errLog, auditLog, logger)
	registerfeature.RegisterRoutes(regRoutes, registerHandler)
	watcher := workers.NewRegistrationWatcher(settings, regRoutes, logger, appCfg.RegistrationPollInterval)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)
	r.NotFound(regRoutes.ServeHTTP)
	r.MethodNotAllowed(regRoutes.ServeHTTP)

	// Health check endpoint for load balancers and orchestrators
	pinger, _ := store.(kv.Pinger)
	healthHandler := healthfeature.NewHandler(pinger, appCfg.StoreBackend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(settings, settings, logger)
	homefeature.MountRoutes(r, homeHandler)

	// Authentication
	loginHandler := loginfeature.NewHandler(authenticator, sessionMgr, settings, errLog, auditLog, logger)
	loginfeature.MountRoutes(r, loginHandler)

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	logoutfeature.MountRoutes(r, logoutHandler)

	// Account lifecycle
	verifyHandler := verifyfeature.NewHandler(accountMgr, settings, errLog, auditLog, logger)
	verifyfeature.MountRoutes(r, verifyHandler)

	resetHandler := resetfeature.NewHandler(accountMgr, settings, errLog, auditLog, logger)
	resetfeature.MountRoutes(r, resetHandler)

	dashboardHandler := dashboardfeature.NewHandler(settings, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	return r, watcher, nil
}

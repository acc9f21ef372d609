// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratagate/internal/app/resources"
	"github.com/dalemusser/stratagate/internal/app/system/authutil"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after the store is
// connected and the settings record exists, but before the HTTP handler is
// built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	timeouts.Configure(timeouts.Config{
		Store: appCfg.TimeoutStore,
		Mail:  appCfg.TimeoutMail,
	})
	authutil.SetCost(appCfg.BcryptCost)

	logger.Debug("startup complete",
		zap.Int("bcrypt_cost", appCfg.BcryptCost),
		zap.Duration("timeout_store", appCfg.TimeoutStore),
		zap.Duration("timeout_mail", appCfg.TimeoutMail))
	return nil
}

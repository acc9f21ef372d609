// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratagate/internal/app/store/kv"
	settingsstore "github.com/dalemusser/stratagate/internal/app/store/settings"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens the configured credential store backend. The ping is
// retried with backoff inside kv.Connect.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	conn, err := kv.Connect(ctx, storeOptions(appCfg), logger)
	if err != nil {
		logger.Error("store connect failed", zap.String("backend", appCfg.StoreBackend), zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect %s store: %w", appCfg.StoreBackend, err)
	}
	logger.Info("connected to credential store", zap.String("backend", appCfg.StoreBackend))
	return DBDeps{Conn: conn}, nil
}

// EnsureSchema creates the settings record with defaults when it is absent.
// The users record is created lazily by the first registration.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	created, err := settingsstore.New(deps.Conn.Store).Ensure(ctx)
	if err != nil {
		logger.Error("settings bootstrap failed", zap.Error(err))
		return err
	}
	if created {
		logger.Info("created default settings record")
	}
	return nil
}

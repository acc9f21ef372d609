// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers and closes the store connection.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	workersMu.Lock()
	w := registrationWorker
	registrationWorker = nil
	workersMu.Unlock()
	if w != nil {
		logger.Info("stopping registration policy watcher")
		w.Stop()
	}

	if deps.Conn != nil {
		logger.Info("closing credential store", zap.String("backend", appCfg.StoreBackend))
		if err := deps.Conn.Close(ctx); err != nil {
			logger.Error("store close failed", zap.Error(err))
			return err
		}
	}
	return nil
}

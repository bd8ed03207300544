// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown finishes post-commit work, drains pending notifications, then
// tears down DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	s := currentServices()
	s.Throttle.Stop()
	if err := s.Background.Wait(ctx); err != nil {
		logger.Warn("post-commit tasks still running at shutdown", zap.Error(err))
	}
	if s.Dispatcher != nil {
		s.Dispatcher.Stop(ctx)
	}

	if deps.CityFixMongoClient != nil {
		logger.Info("disconnecting CityFix MongoDB client")
		if err := deps.CityFixMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}

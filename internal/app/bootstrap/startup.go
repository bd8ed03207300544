// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/cityfix/internal/app/system/mailer"
	"github.com/dalemusser/cityfix/internal/app/system/notify"
	"github.com/dalemusser/cityfix/internal/app/system/ratelimit"
	"github.com/dalemusser/cityfix/internal/app/system/tasks"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived components built in Startup and shared by
// BuildHandler and Shutdown.
type services struct {
	Notifier   notify.Notifier
	Dispatcher *workers.Dispatcher // nil when notifications are only logged
	Throttle   *ratelimit.Limiter  // nil when submit_rate_limit is 0
	Background *tasks.Background   // post-commit audit and notification work
}

var (
	svcMu sync.Mutex
	svc   services
)

func currentServices() services {
	svcMu.Lock()
	defer svcMu.Unlock()
	return svc
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// applies configured timeouts and starts the notification dispatcher.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(appCfg.timeoutsConfig())

	s := buildServices(appCfg, logger)
	if s.Dispatcher != nil {
		s.Dispatcher.Start()
	}

	svcMu.Lock()
	svc = s
	svcMu.Unlock()
	return nil
}

// buildServices picks the notifier. Without an SMTP host notifications are
// logged, never queued.
func buildServices(appCfg AppConfig, logger *zap.Logger) services {
	var s services
	s.Background = tasks.NewBackground(timeouts.Short, logger)
	if appCfg.SubmitRateLimit > 0 {
		s.Throttle = ratelimit.New(appCfg.SubmitRateLimit, appCfg.SubmitRateWindow)
	}

	mcfg := appCfg.mailerConfig()
	if !mcfg.Enabled() {
		s.Notifier = notify.LogNotifier{Log: logger}
		return s
	}

	m := mailer.New(mcfg)
	render := func(template string, data map[string]string) (mailer.Email, error) {
		return mailer.Render(mcfg, template, data)
	}
	d := workers.NewDispatcher(m, render, logger, appCfg.notifyConfig())
	s.Notifier = d
	s.Dispatcher = d
	return s
}

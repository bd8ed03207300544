// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/cityfix/internal/app/features/auditlog"
	citiesfeature "github.com/dalemusser/cityfix/internal/app/features/cities"
	complaintsfeature "github.com/dalemusser/cityfix/internal/app/features/complaints"
	dashboardfeature "github.com/dalemusser/cityfix/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/cityfix/internal/app/features/errors"
	healthfeature "github.com/dalemusser/cityfix/internal/app/features/health"
	workersfeature "github.com/dalemusser/cityfix/internal/app/features/workers"
	zonesfeature "github.com/dalemusser/cityfix/internal/app/features/zones"
	"github.com/dalemusser/cityfix/internal/app/store/audit"
	complaintstore "github.com/dalemusser/cityfix/internal/app/store/complaints"
	workerstore "github.com/dalemusser/cityfix/internal/app/store/workers"
	zonestore "github.com/dalemusser/cityfix/internal/app/store/zones"
	"github.com/dalemusser/cityfix/internal/app/system/assignment"
	"github.com/dalemusser/cityfix/internal/app/system/auditlog"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/candidates"
	"github.com/dalemusser/cityfix/internal/app/system/reqmeta"
	"github.com/dalemusser/cityfix/internal/app/system/txn"
	"github.com/dalemusser/cityfix/internal/app/system/zoneresolve"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// CityFix builds the shared domain components once (zone resolver,
// candidate ranker, assignment coordinator, audit logger), attaches request
// metadata and the upstream actor to every request, and mounts the JSON
// feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	return buildRouter(appCfg, deps, currentServices(), logger), nil
}

func buildRouter(appCfg AppConfig, deps DBDeps, s services, logger *zap.Logger) chi.Router {
	db := deps.CityFixMongoDatabase

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(audit.New(db), logger, appCfg.auditConfig())
	resolver := zoneresolve.New(zonestore.New(db), logger)

	workers := workerstore.New(db)
	coord := assignment.New(assignment.Deps{
		Complaints: complaintstore.New(db),
		Workers:    workers,
		Ranker:     candidates.New(workers, candidates.Config{Limit: appCfg.CandidateLimit}),
		Tx:         txn.NewRunner(db, logger),
		Audit:      auditLog,
		Notifier:   s.Notifier,
		Background: s.Background,
	}, appCfg.assignmentConfig(), logger)

	r := chi.NewRouter()

	// Request id, client ip and user agent for logs and audit metadata.
	r.Use(reqmeta.Middleware)
	// Trusted actor headers from the upstream gateway.
	r.Use(auth.LoadActor(logger))

	// Health check endpoint for load balancers and orchestrators
	var queue healthfeature.QueueDepth
	if s.Dispatcher != nil {
		queue = s.Dispatcher
	}
	healthHandler := healthfeature.NewHandler(deps.CityFixMongoClient, queue, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Geography
	citiesHandler := citiesfeature.NewHandler(db, auditLog, errLog, logger)
	r.Mount("/cities", citiesfeature.Routes(citiesHandler))

	zonesHandler := zonesfeature.NewHandler(db, resolver, auditLog, errLog, logger)
	r.Mount("/zones", zonesfeature.Routes(zonesHandler))

	// Workforce
	workersHandler := workersfeature.NewHandler(db, auditLog, errLog, logger)
	r.Mount("/workers", workersfeature.Routes(workersHandler))

	// Complaints, voting and assignment
	complaintsHandler := complaintsfeature.NewHandler(db, resolver, coord, auditLog, errLog, logger)
	complaintsHandler.Throttle = s.Throttle
	r.Mount("/complaints", complaintsfeature.Routes(complaintsHandler))

	// Reporting
	dashboardHandler := dashboardfeature.NewHandler(db, appCfg.StatsTopN, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler))

	return r
}

package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/notify"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*AppConfig) {}},
		{name: "bad uri", mutate: func(c *AppConfig) { c.MongoURI = "postgres://nope" }, wantErr: "MongoDB URI"},
		{name: "empty database", mutate: func(c *AppConfig) { c.MongoDatabase = "" }, wantErr: "mongo_database"},
		{name: "pool sizes inverted", mutate: func(c *AppConfig) { c.MongoMinPoolSize = 500 }, wantErr: "mongo_min_pool_size"},
		{name: "zero candidates", mutate: func(c *AppConfig) { c.CandidateLimit = 0 }, wantErr: "candidate_limit"},
		{name: "zero queue", mutate: func(c *AppConfig) { c.NotifyQueueSize = 0 }, wantErr: "notify_queue_size"},
		{name: "zero rate", mutate: func(c *AppConfig) { c.NotifyRatePerSec = 0 }, wantErr: "notify_rate_per_sec"},
		{name: "zero top n", mutate: func(c *AppConfig) { c.StatsTopN = 0 }, wantErr: "stats_top_n"},
		{name: "negative timeout", mutate: func(c *AppConfig) { c.StatsTimeout = -time.Second }, wantErr: "timeouts"},
		{name: "negative rate limit", mutate: func(c *AppConfig) { c.SubmitRateLimit = -1 }, wantErr: "submit_rate_limit"},
		{name: "rate limit without window", mutate: func(c *AppConfig) { c.SubmitRateWindow = 0 }, wantErr: "submit_rate_window"},
		{name: "rate limit disabled", mutate: func(c *AppConfig) { c.SubmitRateLimit = 0; c.SubmitRateWindow = 0 }},
		{name: "bad audit destination", mutate: func(c *AppConfig) { c.AuditLogAdmin = "everywhere" }, wantErr: "audit_log_admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuildServices_LogsWithoutSMTP(t *testing.T) {
	s := buildServices(defaultAppConfig(), testLogger())
	defer s.Throttle.Stop()
	if s.Throttle == nil {
		t.Error("expected a throttle with the default submit_rate_limit")
	}
	if s.Dispatcher != nil {
		t.Fatal("expected no dispatcher without an SMTP host")
	}
	if s.Background == nil {
		t.Fatal("expected a background runner for post-commit tasks")
	}
	if _, ok := s.Notifier.(notify.LogNotifier); !ok {
		t.Fatalf("notifier = %T, want notify.LogNotifier", s.Notifier)
	}
}

func TestBuildServices_QueuesWithSMTP(t *testing.T) {
	cfg := defaultAppConfig()
	cfg.MailSMTPHost = "localhost"
	cfg.SubmitRateLimit = 0
	s := buildServices(cfg, testLogger())
	if s.Throttle != nil {
		t.Error("submit_rate_limit 0 should disable the throttle")
	}
	if s.Dispatcher == nil {
		t.Fatal("expected a dispatcher when SMTP is configured")
	}
	if s.Notifier != notify.Notifier(s.Dispatcher) {
		t.Fatal("notifier should be the dispatcher")
	}
	if s.Dispatcher.Pending() != 0 {
		t.Fatalf("pending = %d", s.Dispatcher.Pending())
	}
}

func TestStartupAndShutdown(t *testing.T) {
	defer timeouts.Reset()

	cfg := defaultAppConfig()
	cfg.StatsTimeout = 42 * time.Second
	if err := Startup(context.Background(), nil, cfg, DBDeps{}, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if got := timeouts.Stats(); got != 42*time.Second {
		t.Errorf("stats timeout = %v, want 42s", got)
	}
	if currentServices().Notifier == nil {
		t.Error("Startup should install a notifier")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Shutdown(ctx, nil, cfg, DBDeps{}, testLogger()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{CityFixMongoClient: db.Client(), CityFixMongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, nil, defaultAppConfig(), deps, testLogger()); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}
}

func TestBuildRouter_MountsFeatures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{CityFixMongoClient: db.Client(), CityFixMongoDatabase: db}
	s := buildServices(defaultAppConfig(), testLogger())
	defer s.Throttle.Stop()
	router := buildRouter(defaultAppConfig(), deps, s, testLogger())

	tests := []struct {
		path string
		role string
		want int
	}{
		{path: "/health", want: http.StatusOK},
		{path: "/complaints", want: http.StatusUnauthorized},
		{path: "/complaints", role: "citizen", want: http.StatusOK},
		{path: "/zones", role: "citizen", want: http.StatusForbidden},
		{path: "/workers", role: "citizen", want: http.StatusForbidden},
		{path: "/cities", role: "citizen", want: http.StatusOK},
		{path: "/dashboard/stats", role: "citizen", want: http.StatusForbidden},
		{path: "/audit", role: "citizen", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.role+tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.role != "" {
				req.Header.Set(auth.HeaderUID, "u-1")
				req.Header.Set(auth.HeaderRole, tt.role)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("GET %s as %q: status %d, want %d (%s)", tt.path, tt.role, rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

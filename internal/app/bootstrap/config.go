// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/cityfix/internal/app/store/queries/statsqueries"
	"github.com/dalemusser/cityfix/internal/app/system/assignment"
	"github.com/dalemusser/cityfix/internal/app/system/auditlog"
	"github.com/dalemusser/cityfix/internal/app/system/candidates"
	"github.com/dalemusser/cityfix/internal/app/system/mailer"
	"github.com/dalemusser/cityfix/internal/app/system/notify"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CityFix.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, candidate_limit, etc.
//   - Environment variables: CITYFIX_MONGO_URI, CITYFIX_CANDIDATE_LIMIT, etc.
//   - Command-line flags: --mongo_uri, --candidate_limit, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "cityfix", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs notifications instead of mailing)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@cityfix.example", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CityFix", Desc: "From display name"},

	// Base URL for email links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Audit logging settings
	{Name: "audit_log_assignment", Default: "all", Desc: "Assignment event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Assignment, notification and dashboard tuning
	{Name: "candidate_limit", Default: candidates.DefaultLimit, Desc: "Ranked candidates consulted per assignment"},
	{Name: "notify_queue_size", Default: notify.DefaultQueueSize, Desc: "Pending notification queue size"},
	{Name: "notify_rate_per_sec", Default: notify.DefaultRatePerSec, Desc: "Notification emails sent per second"},
	{Name: "stats_top_n", Default: statsqueries.DefaultTopN, Desc: "Entries in each dashboard top list"},
	{Name: "timeout_assign", Default: "", Desc: "Assignment transaction timeout (e.g., 10s); blank keeps the default"},
	{Name: "timeout_stats", Default: "", Desc: "Dashboard statistics timeout (e.g., 20s); blank keeps the default"},

	// Abuse protection
	{Name: "submit_rate_limit", Default: 30, Desc: "Complaint submissions and votes per actor per window (0 disables)"},
	{Name: "submit_rate_window", Default: "1m", Desc: "Window for submit_rate_limit (e.g., 1m)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CITYFIX_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CITYFIX", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		// Audit logging
		AuditLogAssignment: appValues.String("audit_log_assignment"),
		AuditLogAdmin:      appValues.String("audit_log_admin"),

		CandidateLimit:   appValues.Int("candidate_limit"),
		NotifyQueueSize:  appValues.Int("notify_queue_size"),
		NotifyRatePerSec: float64(appValues.Int("notify_rate_per_sec")),
		StatsTopN:        appValues.Int("stats_top_n"),
		AssignTimeout:    appValues.Duration("timeout_assign", 0),
		StatsTimeout:     appValues.Duration("timeout_stats", 0),
		SubmitRateLimit:  appValues.Int("submit_rate_limit"),
		SubmitRateWindow: appValues.Duration("submit_rate_window", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked here to catch configuration errors before
// attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if appCfg.CandidateLimit < 1 {
		return fmt.Errorf("candidate_limit must be at least 1, got %d", appCfg.CandidateLimit)
	}
	if appCfg.NotifyQueueSize < 1 {
		return fmt.Errorf("notify_queue_size must be at least 1, got %d", appCfg.NotifyQueueSize)
	}
	if appCfg.NotifyRatePerSec <= 0 {
		return fmt.Errorf("notify_rate_per_sec must be positive")
	}
	if appCfg.StatsTopN < 1 {
		return fmt.Errorf("stats_top_n must be at least 1, got %d", appCfg.StatsTopN)
	}
	if appCfg.AssignTimeout < 0 || appCfg.StatsTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if appCfg.SubmitRateLimit < 0 {
		return fmt.Errorf("submit_rate_limit must not be negative")
	}
	if appCfg.SubmitRateLimit > 0 && appCfg.SubmitRateWindow <= 0 {
		return fmt.Errorf("submit_rate_window must be positive when submit_rate_limit is set")
	}
	for key, v := range map[string]string{
		"audit_log_assignment": appCfg.AuditLogAssignment,
		"audit_log_admin":      appCfg.AuditLogAdmin,
	} {
		switch v {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v)
		}
	}
	if appCfg.MailSMTPHost == "" {
		logger.Warn("mail_smtp_host not set; notifications will only be logged")
	}
	return nil
}

func (c AppConfig) assignmentConfig() assignment.Config {
	return assignment.Config{CandidateLimit: c.CandidateLimit}
}

func (c AppConfig) notifyConfig() notify.Config {
	return notify.Config{QueueSize: c.NotifyQueueSize, RatePerSec: c.NotifyRatePerSec}
}

func (c AppConfig) auditConfig() auditlog.Config {
	return auditlog.Config{Assignment: c.AuditLogAssignment, Admin: c.AuditLogAdmin}
}

func (c AppConfig) timeoutsConfig() timeouts.Config {
	return timeouts.Config{Assign: c.AssignTimeout, Stats: c.StatsTimeout}
}

func (c AppConfig) mailerConfig() mailer.Config {
	return mailer.Config{
		Host:     c.MailSMTPHost,
		Port:     c.MailSMTPPort,
		User:     c.MailSMTPUser,
		Pass:     c.MailSMTPPass,
		From:     c.MailFrom,
		FromName: c.MailFromName,
		SiteName: c.MailFromName,
		BaseURL:  c.BaseURL,
	}
}

// defaultAppConfig mirrors the key defaults; used by tests.
func defaultAppConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "cityfix",
		MongoMaxPoolSize:   100,
		MongoMinPoolSize:   10,
		MailSMTPPort:       1025,
		MailFrom:           "noreply@cityfix.example",
		MailFromName:       "CityFix",
		BaseURL:            "http://localhost:3000",
		AuditLogAssignment: auditlog.All,
		AuditLogAdmin:      auditlog.All,
		CandidateLimit:     candidates.DefaultLimit,
		NotifyQueueSize:    notify.DefaultQueueSize,
		NotifyRatePerSec:   notify.DefaultRatePerSec,
		StatsTopN:          statsqueries.DefaultTopN,
		SubmitRateLimit:    30,
		SubmitRateWindow:   time.Minute,
	}
}

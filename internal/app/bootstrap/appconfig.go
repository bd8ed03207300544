// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is converted into the explicit component configs
// (assignment.Config, notify.Config, auditlog.Config, timeouts.Config)
// before anything is built, so components never read it directly.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Email/SMTP configuration. A blank host logs notifications instead.
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string // From email address (e.g., noreply@cityfix.example)
	MailFromName string // From display name (e.g., CityFix)

	// Base URL for links in notification emails
	BaseURL string // e.g., "https://cityfix.example" or "http://localhost:3000"

	// Audit logging destinations: all, db, log, off
	AuditLogAssignment string
	AuditLogAdmin      string

	// Assignment and notification tuning
	CandidateLimit   int
	NotifyQueueSize  int
	NotifyRatePerSec float64
	StatsTopN        int
	AssignTimeout    time.Duration
	StatsTimeout     time.Duration

	// Per-actor throttle on complaint submission and voting. A zero limit
	// disables it.
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

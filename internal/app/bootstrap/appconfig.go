// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like ports, TLS,
// logging level and request body limits. Everything specific to the
// dashboard backend lives here and is passed to the lifecycle hooks.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: couponhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Report builder
	ReportsMaxConcurrency int     // In-flight fan-out reads per report
	ReportsReadsPerSecond float64 // Fan-out read pacing across reports (0 disables)
	ReportsTimezone       string  // IANA zone for month and day boundaries

	// Audit feed and audit logging
	AuditFeedLimit int64  // Entries per streamed snapshot; 0 means all
	AuditLogMode   string // "all" (db+log), "db", "log", or "off"

	// Profile pictures
	AvatarStorage   string        // "local" or "s3"
	AvatarLocalPath string        // Local storage root
	AvatarLocalURL  string        // URL prefix for serving local files
	AvatarS3Region  string        // AWS region
	AvatarS3Bucket  string        // S3 bucket name
	AvatarURLTTL    time.Duration // Presigned URL lifetime

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address
	MailFromName string // From display name

	// Base URL for email links
	BaseURL           string        // e.g., "https://admin.couponhub.app" or "http://localhost:3000"
	EmailChangeExpiry time.Duration // Lifetime of email verification links

	// Sign-in throttling
	LoginRateLimit  int           // Attempts per client IP per window
	LoginRateWindow time.Duration // Window length

	// Handler timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutReport time.Duration
}

// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/auditlog"
	"github.com/dalemusser/couponhub/internal/app/system/avatars"
	"github.com/dalemusser/couponhub/internal/app/system/ratelimit"
	"github.com/dalemusser/couponhub/internal/app/system/reports"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CouponHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: COUPONHUB_MONGO_URI, COUPONHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "couponhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "couponhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime"},

	// Report builder
	{Name: "reports_max_concurrency", Default: reports.DefaultMaxConcurrency, Desc: "In-flight fan-out reads per report"},
	{Name: "reports_reads_per_second", Default: 0, Desc: "Fan-out reads per second across reports (0 disables pacing)"},
	{Name: "reports_timezone", Default: "UTC", Desc: "IANA time zone for month and day boundaries"},

	// Audit feed and audit logging
	{Name: "audit_feed_limit", Default: 0, Desc: "Entries per streamed audit snapshot (0 streams the whole log)"},
	{Name: "audit_log_mode", Default: "all", Desc: "Account event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Profile pictures
	{Name: "avatar_storage", Default: "local", Desc: "Profile picture storage: 'local' or 's3'"},
	{Name: "avatar_local_path", Default: "./uploads/profilePictures", Desc: "Local storage path for profile pictures"},
	{Name: "avatar_local_url", Default: "/media", Desc: "URL prefix for serving local profile pictures"},
	{Name: "avatar_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "avatar_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "avatar_url_ttl", Default: "15m", Desc: "Presigned profile picture URL lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@couponhub.app", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CouponHub", Desc: "From display name"},

	// Base URL for email links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},
	{Name: "email_change_expiry", Default: "1h", Desc: "Email verification link expiry (e.g., 10m, 1h, 90s)"},

	// Sign-in throttling
	{Name: "login_rate_limit", Default: ratelimit.DefaultSignInLimit, Desc: "Sign-in attempts per client IP per window"},
	{Name: "login_rate_window", Default: "1m", Desc: "Sign-in throttling window"},

	// Handler timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries and account flows"},
	{Name: "timeout_report", Default: "60s", Desc: "Timeout for one report build"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, COUPONHUB_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COUPONHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		// Report builder
		ReportsMaxConcurrency: appValues.Int("reports_max_concurrency"),
		ReportsReadsPerSecond: float64(appValues.Int("reports_reads_per_second")),
		ReportsTimezone:       appValues.String("reports_timezone"),

		// Audit
		AuditFeedLimit: int64(appValues.Int("audit_feed_limit")),
		AuditLogMode:   appValues.String("audit_log_mode"),

		// Profile pictures
		AvatarStorage:   strings.ToLower(strings.TrimSpace(appValues.String("avatar_storage"))),
		AvatarLocalPath: appValues.String("avatar_local_path"),
		AvatarLocalURL:  appValues.String("avatar_local_url"),
		AvatarS3Region:  appValues.String("avatar_s3_region"),
		AvatarS3Bucket:  appValues.String("avatar_s3_bucket"),
		AvatarURLTTL:    appValues.Duration("avatar_url_ttl", avatars.DefaultURLTTL),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		// Email links
		BaseURL:           appValues.String("base_url"),
		EmailChangeExpiry: appValues.Duration("email_change_expiry", time.Hour),

		// Sign-in throttling
		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", ratelimit.DefaultSignInWindow),

		// Timeouts
		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutReport: appValues.Duration("timeout_report", timeouts.DefaultReport),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// CouponHub validates the MongoDB URI format, the report settings and the
// profile picture storage settings so misconfiguration fails at startup
// rather than on the first request.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(appCfg)
}

func validateAppConfig(appCfg AppConfig) error {
	if appCfg.ReportsMaxConcurrency <= 0 {
		return fmt.Errorf("reports_max_concurrency must be positive, got %d", appCfg.ReportsMaxConcurrency)
	}
	if appCfg.ReportsReadsPerSecond < 0 {
		return fmt.Errorf("reports_reads_per_second must not be negative")
	}
	if _, err := time.LoadLocation(appCfg.ReportsTimezone); err != nil {
		return fmt.Errorf("invalid reports_timezone %q: %w", appCfg.ReportsTimezone, err)
	}
	if appCfg.AuditFeedLimit < 0 {
		return fmt.Errorf("audit_feed_limit must not be negative, got %d", appCfg.AuditFeedLimit)
	}
	switch strings.ToLower(appCfg.AuditLogMode) {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_log_mode must be one of all, db, log, off; got %q", appCfg.AuditLogMode)
	}

	switch appCfg.AvatarStorage {
	case "local":
		if appCfg.AvatarLocalPath == "" {
			return fmt.Errorf("avatar_storage=local requires avatar_local_path")
		}
	case "s3":
		if appCfg.AvatarS3Region == "" || appCfg.AvatarS3Bucket == "" {
			return fmt.Errorf("avatar_storage=s3 requires avatar_s3_region and avatar_s3_bucket")
		}
	default:
		return fmt.Errorf("avatar_storage must be 'local' or 's3', got %q", appCfg.AvatarStorage)
	}
	return nil
}

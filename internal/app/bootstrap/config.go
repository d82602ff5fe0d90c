// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables, e.g.
// STRATAIMPACT_MONGO_URI.
const EnvVarPrefix = "STRATAIMPACT"

const (
	devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"
	devCSRFKey    = "dev-only-csrf-key-please-change-0123456789"
)

var (
	errDevSessionKey = errors.New("session_key must be changed from the development default in prod")
	errDevCSRFKey    = errors.New("csrf_key must be changed from the development default in prod")
	errShortCSRFKey  = errors.New("csrf_key must be at least 32 bytes")
)

// appConfigKeys are loaded from config files (mongo_uri), environment
// variables (STRATAIMPACT_MONGO_URI) and flags (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "strataimpact", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "strataimpact-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h)"},
	{Name: "csrf_key", Default: devCSRFKey, Desc: "CSRF token signing key (32+ chars)"},

	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded images"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	{Name: "mail_transport", Default: "smtp", Desc: "Notification transport: 'smtp', 'ses' or 'off'"},
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_ses_region", Default: "", Desc: "AWS region for SES (blank uses the default chain)"},
	{Name: "mail_from", Default: "noreply@example.org", Desc: "From email address"},
	{Name: "mail_from_name", Default: "StrataImpact", Desc: "From display name"},
	{Name: "contact_notify_email", Default: "", Desc: "Recipient for new contact messages (overrides contact settings)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL for email links"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all', 'db', 'log' or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all', 'db', 'log' or 'off'"},

	{Name: "seed_admin_email", Default: "", Desc: "Login of the admin created on startup"},
	{Name: "seed_admin_name", Default: "Administrator", Desc: "Name of the admin created on startup"},
	{Name: "seed_admin_password", Default: "", Desc: "Password of the admin created on startup"},

	{Name: "redis_addr", Default: "", Desc: "Redis address for the form throttle (blank disables it)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "form_throttle_limit", Default: 5, Desc: "Public form posts allowed per IP per window"},
	{Name: "form_throttle_window", Default: "10m", Desc: "Public form throttle window"},

	{Name: "login_lockout_attempts", Default: 5, Desc: "Failed logins before lockout"},
	{Name: "login_lockout_window", Default: "15m", Desc: "Window for counting failed logins"},
	{Name: "login_lockout_duration", Default: "15m", Desc: "Lockout duration"},

	{Name: "contact_retention", Default: "2160h", Desc: "Age after which archived contact messages are purged (0 keeps them)"},
	{Name: "audit_retention", Default: "8760h", Desc: "Age after which audit events are purged (0 keeps them)"},
	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and the site config. Precedence is
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, v, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         v.String("mongo_uri"),
		MongoDatabase:    v.String("mongo_database"),
		MongoMaxPoolSize: uint64(v.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(v.Int("mongo_min_pool_size")),

		SessionKey:    v.String("session_key"),
		SessionName:   v.String("session_name"),
		SessionDomain: v.String("session_domain"),
		SessionMaxAge: v.Duration("session_max_age", 24*time.Hour),
		CSRFKey:       v.String("csrf_key"),

		StorageType:        v.String("storage_type"),
		StorageLocalPath:   v.String("storage_local_path"),
		StorageLocalURL:    v.String("storage_local_url"),
		StorageS3Region:    v.String("storage_s3_region"),
		StorageS3Bucket:    v.String("storage_s3_bucket"),
		StorageS3Prefix:    v.String("storage_s3_prefix"),
		StorageCFURL:       v.String("storage_cf_url"),
		StorageCFKeyPairID: v.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   v.String("storage_cf_key_path"),

		MailTransport:      v.String("mail_transport"),
		MailSMTPHost:       v.String("mail_smtp_host"),
		MailSMTPPort:       v.Int("mail_smtp_port"),
		MailSMTPUser:       v.String("mail_smtp_user"),
		MailSMTPPass:       v.String("mail_smtp_pass"),
		MailSESRegion:      v.String("mail_ses_region"),
		MailFrom:           v.String("mail_from"),
		MailFromName:       v.String("mail_from_name"),
		ContactNotifyEmail: v.String("contact_notify_email"),

		BaseURL: v.String("base_url"),

		AuditLogAuth:  v.String("audit_log_auth"),
		AuditLogAdmin: v.String("audit_log_admin"),

		SeedAdminEmail:    v.String("seed_admin_email"),
		SeedAdminName:     v.String("seed_admin_name"),
		SeedAdminPassword: v.String("seed_admin_password"),

		RedisAddr:          v.String("redis_addr"),
		RedisPassword:      v.String("redis_password"),
		RedisDB:            v.Int("redis_db"),
		FormThrottleLimit:  v.Int("form_throttle_limit"),
		FormThrottleWindow: v.Duration("form_throttle_window", 10*time.Minute),

		LoginLockoutAttempts: v.Int("login_lockout_attempts"),
		LoginLockoutWindow:   v.Duration("login_lockout_window", 15*time.Minute),
		LoginLockoutDuration: v.Duration("login_lockout_duration", 15*time.Minute),

		ContactRetention: v.Duration("contact_retention", 90*24*time.Hour),
		AuditRetention:   v.Duration("audit_retention", 365*24*time.Hour),
		MetricsEnabled:   v.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects settings the site cannot start with.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.MailTransport {
	case "smtp", "ses", "off", "":
	default:
		return fmt.Errorf("unknown mail_transport %q (want smtp, ses or off)", appCfg.MailTransport)
	}

	switch appCfg.StorageType {
	case "local", "":
	case "s3":
		if appCfg.StorageS3Bucket == "" {
			return errors.New("storage_s3_bucket is required when storage_type is s3")
		}
	default:
		return fmt.Errorf("unknown storage_type %q (want local or s3)", appCfg.StorageType)
	}

	if len(appCfg.CSRFKey) < 32 {
		return errShortCSRFKey
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey {
			return errDevSessionKey
		}
		if appCfg.CSRFKey == devCSRFKey {
			return errDevCSRFKey
		}
	}

	return nil
}

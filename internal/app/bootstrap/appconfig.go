// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds the site-specific configuration loaded in LoadConfig.
//
// WAFFLE's CoreConfig covers the framework settings (ports, TLS, logging,
// CORS, body limits, timeouts). Everything below belongs to StrataImpact.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Admin session cookie
	SessionKey    string // must be strong in production
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	CSRFKey string // 32+ bytes in production

	// File storage for gallery and team images
	StorageType      string // "local" or "s3"
	StorageLocalPath string
	StorageLocalURL  string

	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Notification email
	MailTransport string // "smtp", "ses" or "off"
	MailSMTPHost  string
	MailSMTPPort  int
	MailSMTPUser  string
	MailSMTPPass  string
	MailSESRegion string
	MailFrom      string
	MailFromName  string

	// ContactNotifyEmail overrides the contact settings address for
	// new-message notifications.
	ContactNotifyEmail string

	// BaseURL is the public origin used for links in emails.
	BaseURL string

	// Audit logging: "all" (db+zap), "db", "log" or "off".
	AuditLogAuth  string
	AuditLogAdmin string

	// Bootstrap admin, created when no user has this login.
	SeedAdminEmail    string
	SeedAdminName     string
	SeedAdminPassword string

	// Redis backs the public form throttle. Blank disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FormThrottleLimit  int
	FormThrottleWindow time.Duration

	// Login lockout
	LoginLockoutAttempts int
	LoginLockoutWindow   time.Duration
	LoginLockoutDuration time.Duration

	// Retention of archived contact messages and audit events.
	// Zero disables the purge job.
	ContactRetention time.Duration
	AuditRetention   time.Duration

	MetricsEnabled bool
}

// MailEnabled reports whether notification emails are configured.
func (c AppConfig) MailEnabled() bool {
	return c.MailTransport != "off" && c.MailTransport != "" && c.MailFrom != ""
}

// RedisEnabled reports whether a Redis address is configured.
func (c AppConfig) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// internal/app/bootstrap/statusconfig.go
package bootstrap

import (
	"strconv"

	statusfeature "github.com/dalemusser/strataimpact/internal/app/features/status"
	"github.com/dalemusser/waffle/config"
)

// statusConfigGroups lists the effective configuration for the admin
// status page. Secrets are masked.
func statusConfigGroups(coreCfg *config.CoreConfig, appCfg AppConfig) []statusfeature.ConfigGroup {
	mask := statusfeature.Mask
	type item = statusfeature.ConfigItem
	var groups []statusfeature.ConfigGroup

	if coreCfg != nil {
		groups = append(groups, statusfeature.ConfigGroup{
			Name: "Environment",
			Items: []item{
				{Name: "env", Value: coreCfg.Env},
				{Name: "log_level", Value: coreCfg.LogLevel},
				{Name: "http_port", Value: strconv.Itoa(coreCfg.HTTP.HTTPPort)},
				{Name: "https_port", Value: strconv.Itoa(coreCfg.HTTP.HTTPSPort)},
				{Name: "use_https", Value: strconv.FormatBool(coreCfg.HTTP.UseHTTPS)},
				{Name: "db_connect_timeout", Value: coreCfg.DBConnectTimeout.String()},
			},
		})
	}

	groups = append(groups,
		statusfeature.ConfigGroup{
			Name: "Database",
			Items: []item{
				{Name: "mongo_uri", Value: mask(appCfg.MongoURI)},
				{Name: "mongo_database", Value: appCfg.MongoDatabase},
				{Name: "mongo_max_pool_size", Value: strconv.FormatUint(appCfg.MongoMaxPoolSize, 10)},
				{Name: "mongo_min_pool_size", Value: strconv.FormatUint(appCfg.MongoMinPoolSize, 10)},
				{Name: "redis_addr", Value: appCfg.RedisAddr},
				{Name: "redis_db", Value: strconv.Itoa(appCfg.RedisDB)},
			},
		},
		statusfeature.ConfigGroup{
			Name: "Session & Security",
			Items: []item{
				{Name: "session_key", Value: mask(appCfg.SessionKey)},
				{Name: "session_name", Value: appCfg.SessionName},
				{Name: "session_domain", Value: appCfg.SessionDomain},
				{Name: "session_max_age", Value: appCfg.SessionMaxAge.String()},
				{Name: "csrf_key", Value: mask(appCfg.CSRFKey)},
				{Name: "login_lockout_attempts", Value: strconv.Itoa(appCfg.LoginLockoutAttempts)},
				{Name: "login_lockout_window", Value: appCfg.LoginLockoutWindow.String()},
				{Name: "login_lockout_duration", Value: appCfg.LoginLockoutDuration.String()},
				{Name: "form_throttle_limit", Value: strconv.Itoa(appCfg.FormThrottleLimit)},
				{Name: "form_throttle_window", Value: appCfg.FormThrottleWindow.String()},
			},
		},
		statusfeature.ConfigGroup{
			Name: "Storage",
			Items: []item{
				{Name: "storage_type", Value: appCfg.StorageType},
				{Name: "storage_local_path", Value: appCfg.StorageLocalPath},
				{Name: "storage_local_url", Value: appCfg.StorageLocalURL},
				{Name: "storage_s3_region", Value: appCfg.StorageS3Region},
				{Name: "storage_s3_bucket", Value: appCfg.StorageS3Bucket},
				{Name: "storage_cf_url", Value: appCfg.StorageCFURL},
			},
		},
		statusfeature.ConfigGroup{
			Name: "Email",
			Items: []item{
				{Name: "mail_transport", Value: appCfg.MailTransport},
				{Name: "mail_smtp_host", Value: appCfg.MailSMTPHost},
				{Name: "mail_smtp_port", Value: strconv.Itoa(appCfg.MailSMTPPort)},
				{Name: "mail_smtp_user", Value: appCfg.MailSMTPUser},
				{Name: "mail_smtp_pass", Value: mask(appCfg.MailSMTPPass)},
				{Name: "mail_ses_region", Value: appCfg.MailSESRegion},
				{Name: "mail_from", Value: appCfg.MailFrom},
				{Name: "contact_notify_email", Value: appCfg.ContactNotifyEmail},
				{Name: "base_url", Value: appCfg.BaseURL},
			},
		},
		statusfeature.ConfigGroup{
			Name: "Audit & Retention",
			Items: []item{
				{Name: "audit_log_auth", Value: appCfg.AuditLogAuth},
				{Name: "audit_log_admin", Value: appCfg.AuditLogAdmin},
				{Name: "contact_retention", Value: appCfg.ContactRetention.String()},
				{Name: "audit_retention", Value: appCfg.AuditRetention.String()},
				{Name: "metrics_enabled", Value: strconv.FormatBool(appCfg.MetricsEnabled)},
				{Name: "seed_admin_email", Value: appCfg.SeedAdminEmail},
			},
		},
	)
	return groups
}

// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/strataimpact/internal/app/store/loginlock"
	"github.com/dalemusser/strataimpact/internal/app/system/indexes"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/seeding"
	"github.com/dalemusser/strataimpact/internal/app/system/throttle"
	"github.com/dalemusser/strataimpact/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects MongoDB, file storage, the mail transport and, when
// configured, Redis. A configured backend that cannot be reached aborts
// startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	store, err := connectStorage(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}

	mail, err := connectMailer(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		FileStorage:   store,
		Mailer:        mail,
		Lockout:       newLockout(db, appCfg),
	}

	if appCfg.RedisEnabled() {
		rdb, err := throttle.Connect(ctx, appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisDB)
		if err != nil {
			return DBDeps{}, err
		}
		deps.Redis = rdb
		deps.Limiter = throttle.New(rdb, appCfg.FormThrottleLimit, appCfg.FormThrottleWindow)
		logger.Info("connected to Redis",
			zap.String("addr", appCfg.RedisAddr),
			zap.Int("form_throttle_limit", appCfg.FormThrottleLimit),
			zap.Duration("form_throttle_window", appCfg.FormThrottleWindow),
		)
	} else {
		logger.Info("redis_addr not set, form throttle disabled")
	}

	return deps, nil
}

func connectStorage(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		store, err := storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize S3 storage: %w", err)
		}
		logger.Info("initialized S3 image storage",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
		)
		return store, nil
	case "local", "":
		store, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize local storage: %w", err)
		}
		logger.Info("initialized local image storage",
			zap.String("path", appCfg.StorageLocalPath),
			zap.String("url", appCfg.StorageLocalURL),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}
}

// connectMailer returns nil when notifications are off.
func connectMailer(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*mailer.Mailer, error) {
	if !appCfg.MailEnabled() {
		logger.Info("notification email disabled")
		return nil, nil
	}

	var sender mailer.Sender
	switch appCfg.MailTransport {
	case "ses":
		ses, err := mailer.NewSES(ctx, mailer.SESConfig{
			Region:   appCfg.MailSESRegion,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize SES mailer: %w", err)
		}
		sender = ses
		logger.Info("initialized SES mailer", zap.String("region", appCfg.MailSESRegion))
	default:
		sender = mailer.NewSMTP(mailer.SMTPConfig{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			User:     appCfg.MailSMTPUser,
			Pass:     appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
		})
		logger.Info("initialized SMTP mailer",
			zap.String("host", appCfg.MailSMTPHost),
			zap.Int("port", appCfg.MailSMTPPort),
		)
	}
	return mailer.New(sender, appCfg.MailFromName, logger), nil
}

// newLockout returns nil when login_lockout_attempts is 0.
func newLockout(db *mongo.Database, appCfg AppConfig) *loginlock.Store {
	if appCfg.LoginLockoutAttempts <= 0 {
		return nil
	}
	return loginlock.New(db, loginlock.Policy{
		MaxAttempts: appCfg.LoginLockoutAttempts,
		Window:      appCfg.LoginLockoutWindow,
		Lockout:     appCfg.LoginLockoutDuration,
	})
}

// EnsureSchema attaches validators, creates indexes and loads the starter
// content into an empty database.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Validators first so indexes land on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	content, err := seeding.Default()
	if err != nil {
		return err
	}
	logger.Info("seeding starter content")
	if err := seeding.SeedAll(ctx, db, logger, content, seedAdmin(appCfg)); err != nil {
		logger.Error("failed to seed starter content", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured")
	return nil
}

func seedAdmin(appCfg AppConfig) seeding.Admin {
	return seeding.Admin{
		Email:    appCfg.SeedAdminEmail,
		Password: appCfg.SeedAdminPassword,
		Name:     appCfg.SeedAdminName,
	}
}

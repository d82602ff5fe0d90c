// internal/app/bootstrap/maintenance.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/strataimpact/internal/app/system/seeding"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// withDatabase loads the configuration, connects to MongoDB, ensures the
// schema and calls fn. It backs the one-shot CLI commands, which need the
// database but none of the HTTP stack.
func withDatabase(ctx context.Context, logger *zap.Logger, fn func(ctx context.Context, appCfg AppConfig, db *mongo.Database) error) error {
	coreCfg, appCfg, err := LoadConfig(logger)
	if err != nil {
		return err
	}
	if err := ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return err
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, wafflemongo.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}()

	db := client.Database(appCfg.MongoDatabase)
	deps := DBDeps{MongoClient: client, MongoDatabase: db}
	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, logger); err != nil {
		return err
	}
	return fn(ctx, appCfg, db)
}

// SeedFromYAML loads seed content from data into the configured database.
// Like startup seeding it never overwrites existing documents.
func SeedFromYAML(ctx context.Context, logger *zap.Logger, data []byte) error {
	content, err := seeding.Parse(data)
	if err != nil {
		return err
	}
	return withDatabase(ctx, logger, func(ctx context.Context, appCfg AppConfig, db *mongo.Database) error {
		return seeding.SeedAll(ctx, db, logger, content, seedAdmin(appCfg))
	})
}

// PurgeNow runs the retention jobs once. Jobs with a zero retention are
// skipped.
func PurgeNow(ctx context.Context, logger *zap.Logger) error {
	return withDatabase(ctx, logger, func(ctx context.Context, appCfg AppConfig, db *mongo.Database) error {
		runner := newTaskRunner(DBDeps{MongoDatabase: db}, appCfg, logger)
		for _, job := range runner.Jobs() {
			logger.Info("running job", zap.String("job", job.Name))
			if err := runner.RunOnce(ctx, job.Name); err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
		}
		return nil
	})
}

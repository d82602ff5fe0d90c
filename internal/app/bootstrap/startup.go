// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/strataimpact/internal/app/resources"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	contactstore "github.com/dalemusser/strataimpact/internal/app/store/contacts"
	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/tasks"
	"github.com/dalemusser/strataimpact/internal/app/system/timeouts"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after the schema is in place and before the handler
// is built. A returned error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n), zap.Any("timeouts", timeouts.Current()))
	}

	// BaseVM reads site identity (name, tagline, logo, footer) from the
	// settings documents on every request.
	viewdata.Init(deps.FileStorage, sitecontent.New(deps.MongoDatabase), logger)

	taskRunner = newTaskRunner(deps, appCfg, logger)
	taskRunner.Start()
	return nil
}

// taskRunner is kept for Shutdown.
var taskRunner *tasks.Runner

func newTaskRunner(deps DBDeps, appCfg AppConfig, logger *zap.Logger) *tasks.Runner {
	runner := tasks.New(logger)
	if appCfg.ContactRetention > 0 {
		runner.Register(tasks.ContactPurgeJob(contactstore.New(deps.MongoDatabase), appCfg.ContactRetention, logger))
	}
	if appCfg.AuditRetention > 0 {
		runner.Register(tasks.AuditPurgeJob(audit.New(deps.MongoDatabase), appCfg.AuditRetention, logger))
	}
	return runner
}

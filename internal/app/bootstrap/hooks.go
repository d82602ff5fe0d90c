// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires the site into the WAFFLE lifecycle. app.Run calls them in
// order, from configuration through shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "strataimpact",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,    // MongoDB, storage, mailer, Redis
	EnsureSchema:   EnsureSchema, // validators, indexes, starter content
	Startup:        Startup,      // shared templates, viewdata, purge jobs
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}

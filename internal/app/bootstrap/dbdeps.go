// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/strataimpact/internal/app/store/loginlock"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/throttle"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends built in ConnectDB and passed to EnsureSchema,
// Startup, BuildHandler and Shutdown. Optional backends are nil when not
// configured, and every consumer treats nil as disabled.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage holds gallery and team images.
	FileStorage storage.Store

	// Mailer sends notification emails. Nil when mail_transport is off.
	Mailer *mailer.Mailer

	// Redis and Limiter back the public form throttle. Nil without redis_addr.
	Redis   *redis.Client
	Limiter *throttle.Limiter

	// Lockout counts failed logins per login id.
	Lockout *loginlock.Store
}

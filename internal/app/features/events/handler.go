// internal/app/features/events/handler.go
package events

import (
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	registrationstore "github.com/dalemusser/strataimpact/internal/app/store/registrations"
	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/throttle"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ThrottleScope is the limiter scope for registration posts.
const ThrottleScope = "register"

// Options carries the optional collaborators of the events feature.
type Options struct {
	Storage storage.Store     // gallery uploads; nil disables them
	Mailer  *mailer.Mailer    // attendee confirmations; nil disables them
	Limiter *throttle.Limiter // registration throttle; nil disables it
	Audit   *auditlog.Logger
	BaseURL string
}

// Handler serves the public event pages and the event admin.
type Handler struct {
	db        *mongo.Database
	events    *eventstore.Store
	regs      *registrationstore.Store
	registrar *registrationstore.Registrar
	content   *sitecontent.Store
	opts      Options
	errLog    *errorsfeature.ErrorLogger
	errPages  *errorsfeature.Handler
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler creates a new events Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, opts Options, logger *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		events:    eventstore.New(db),
		regs:      registrationstore.New(db),
		registrar: registrationstore.NewRegistrar(db, logger),
		content:   sitecontent.New(db),
		opts:      opts,
		errLog:    errLog,
		errPages:  errorsfeature.NewHandler(),
		logger:    logger,
		now:       time.Now,
	}
}

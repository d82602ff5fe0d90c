// internal/app/features/pages/handler.go
package pages

import (
	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	faqstore "github.com/dalemusser/strataimpact/internal/app/store/faqs"
	pagestore "github.com/dalemusser/strataimpact/internal/app/store/pages"
	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxContentLength caps a page intro at 100KB.
const MaxContentLength = 100000

// Handler serves the static public pages and their admin editor.
type Handler struct {
	pageStore *pagestore.Store
	faqs      *faqstore.Store
	events    *eventstore.Store
	projects  *projectstore.Store
	errLog    *errorsfeature.ErrorLogger
	errPages  *errorsfeature.Handler
	audit     *auditlog.Logger
	logger    *zap.Logger
}

// NewHandler creates a new pages Handler. audit may be nil.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		pageStore: pagestore.New(db),
		faqs:      faqstore.New(db, logger),
		events:    eventstore.New(db),
		projects:  projectstore.New(db),
		errLog:    errLog,
		errPages:  errorsfeature.NewHandler(),
		audit:     audit,
		logger:    logger,
	}
}

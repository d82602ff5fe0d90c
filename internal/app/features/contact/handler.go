// internal/app/features/contact/handler.go
package contact

import (
	"net/http"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	contactstore "github.com/dalemusser/strataimpact/internal/app/store/contacts"
	faqstore "github.com/dalemusser/strataimpact/internal/app/store/faqs"
	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/throttle"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ThrottleScope is the limiter scope for contact form posts.
const ThrottleScope = "contact"

// Options carries the optional collaborators of the contact form.
type Options struct {
	Limiter  *throttle.Limiter // nil disables throttling
	Mailer   *mailer.Mailer    // nil disables the notification
	BaseURL  string            // used for the admin link in the notification
	NotifyTo string            // overrides the contact settings address
}

// Handler serves /contact.
type Handler struct {
	contacts *contactstore.Store
	faqs     *faqstore.Store
	content  *sitecontent.Store
	opts     Options
	errLog   *errorsfeature.ErrorLogger
	errPages *errorsfeature.Handler
	logger   *zap.Logger
}

// NewHandler creates a new contact Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, opts Options, logger *zap.Logger) *Handler {
	return &Handler{
		contacts: contactstore.New(db),
		faqs:     faqstore.New(db, logger),
		content:  sitecontent.New(db),
		opts:     opts,
		errLog:   errLog,
		errPages: errorsfeature.NewHandler(),
		logger:   logger,
	}
}

// Routes returns a chi.Router with the contact page and form.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Show)
	r.Post("/", h.Submit)
	return r
}

// internal/app/features/home/home.go
package home

import (
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UpcomingLimit is how many upcoming events the home page shows.
const UpcomingLimit = 3

// Handler provides home page handlers.
type Handler struct {
	events   *eventstore.Store
	projects *projectstore.Store
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new home Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		events:   eventstore.New(db),
		projects: projectstore.New(db),
		errLog:   errLog,
		logger:   logger,
		now:      time.Now,
	}
}

// HomeVM is the view model for the home page.
type HomeVM struct {
	viewdata.BaseVM
	Upcoming []models.Event
	Projects []models.Project
}

// Routes returns a chi.Router with home routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	return r
}

// Index renders the home page. A failing section is logged and left empty
// so the page still renders.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	vm := HomeVM{BaseVM: viewdata.New(r)}

	upcoming, err := h.events.ListUpcoming(r.Context(), h.now(), UpcomingLimit)
	if err != nil {
		h.errLog.Log(r, "failed to load upcoming events", err)
	}
	vm.Upcoming = upcoming

	active, err := h.projects.ListByStatus(r.Context(), models.ProjectActive)
	if err != nil {
		h.errLog.Log(r, "failed to load active projects", err)
	}
	vm.Projects = active

	templates.Render(w, r, "home/index", vm)
}

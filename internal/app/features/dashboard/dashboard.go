// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	contactstore "github.com/dalemusser/strataimpact/internal/app/store/contacts"
	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	registrationstore "github.com/dalemusser/strataimpact/internal/app/store/registrations"
	subscriberstore "github.com/dalemusser/strataimpact/internal/app/store/subscribers"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	upcomingLimit = 5
	recentLimit   = 10
)

// Handler provides dashboard handlers.
type Handler struct {
	events   *eventstore.Store
	regs     *registrationstore.Store
	msgs     *contactstore.Store
	subs     *subscriberstore.Store
	errLog   *errorsfeature.ErrorLogger
	errPages *errorsfeature.Handler
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new dashboard Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		events:   eventstore.New(db),
		regs:     registrationstore.New(db),
		msgs:     contactstore.New(db),
		subs:     subscriberstore.New(db),
		errLog:   errLog,
		errPages: errorsfeature.NewHandler(),
		logger:   logger,
		now:      time.Now,
	}
}

// UpcomingRow is one upcoming event with its remaining capacity.
type UpcomingRow struct {
	Event     models.Event
	SpotsLeft string
}

// RegistrationRow is a recent registration with its event title.
type RegistrationRow struct {
	Registration models.Registration
	EventTitle   string
}

// DashboardVM is the view model for the dashboard. Visitor data (messages,
// subscribers, registrations) is filled only for admins.
type DashboardVM struct {
	viewdata.BaseVM
	Upcoming      []UpcomingRow
	NewMessages   int64
	OpenMessages  int64
	Subscribers   int64
	Registrations []RegistrationRow
}

// Routes returns the dashboard, mounted at /admin.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole(authz.ContentRoles...))
	r.Get("/", h.showDashboard)
	return r
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vm := DashboardVM{BaseVM: viewdata.NewBaseVM(r, "Dashboard", "")}

	upcoming, err := h.events.ListUpcoming(ctx, h.now().UTC(), upcomingLimit)
	if err != nil {
		h.errLog.Log(r, "failed to list upcoming events", err)
		h.errPages.InternalError(w, r)
		return
	}
	for _, ev := range upcoming {
		vm.Upcoming = append(vm.Upcoming, UpcomingRow{Event: ev, SpotsLeft: spotsLeft(ev)})
	}

	if vm.IsAdmin {
		if err := h.fillVisitorData(r, &vm); err != nil {
			h.errLog.Log(r, "failed to load dashboard counts", err)
			h.errPages.InternalError(w, r)
			return
		}
	}
	templates.Render(w, r, "dashboard/index", vm)
}

func (h *Handler) fillVisitorData(r *http.Request, vm *DashboardVM) error {
	ctx := r.Context()

	counts, err := h.msgs.CountByStatus(ctx)
	if err != nil {
		return err
	}
	vm.NewMessages = counts[models.MessageStatusNew]
	vm.OpenMessages = counts[models.MessageStatusNew] + counts[models.MessageStatusRead]

	if vm.Subscribers, err = h.subs.Count(ctx); err != nil {
		return err
	}

	recent, err := h.regs.Recent(ctx, recentLimit)
	if err != nil {
		return err
	}
	titles := make(map[primitive.ObjectID]string)
	for _, reg := range recent {
		title, seen := titles[reg.EventID]
		if !seen {
			ev, err := h.events.GetByID(ctx, reg.EventID)
			switch {
			case err == nil:
				title = ev.Title
			case errors.Is(err, eventstore.ErrNotFound):
				title = "(deleted event)"
			default:
				return err
			}
			titles[reg.EventID] = title
		}
		vm.Registrations = append(vm.Registrations, RegistrationRow{Registration: reg, EventTitle: title})
	}
	return nil
}

func spotsLeft(ev models.Event) string {
	if ev.Uncapped() {
		return "Unlimited"
	}
	return strconv.Itoa(ev.SpotsLeft())
}

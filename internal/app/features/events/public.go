// internal/app/features/events/public.go
package events

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	registrationstore "github.com/dalemusser/strataimpact/internal/app/store/registrations"
	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/metrics"
	"github.com/dalemusser/strataimpact/internal/app/system/network"
	"github.com/dalemusser/strataimpact/internal/app/system/timeouts"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// whenLayout is how an event's start time is shown to visitors.
const whenLayout = "Monday, Jan 2, 2006 at 3:04 PM"

// ListVM is the public events page.
type ListVM struct {
	viewdata.BaseVM
	Hero     models.EventsHero
	Upcoming []models.Event
	Past     []models.Event
}

// ShowVM is the event detail page with the registration form.
type ShowVM struct {
	formutil.Base
	Event       models.Event
	Description template.HTML
	SpotsLeft   string
	Open        bool
	ClosedNote  string
	Form        attendeeInput
	Registered  bool
	Code        string
}

// attendeeInput is the typed registration form.
type attendeeInput struct {
	Name         string `validate:"required,max=120" label:"Name"`
	Email        string `validate:"required,mailaddr,max=254" label:"Email"`
	Phone        string `validate:"max=40" label:"Phone"`
	Organization string `validate:"max=200" label:"Organization"`
	Dietary      string `validate:"max=500" label:"Dietary requirements"`
	SpecialNeeds string `validate:"max=1000" label:"Accessibility needs"`
}

// List renders upcoming then past published events under the events hero.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	hero := models.DefaultEventsHero()
	found, err := sitecontent.Get[models.EventsHero](ctx, h.content, models.ContentKeyEventsHero)
	if err != nil {
		h.errLog.Log(r, "failed to load events hero", err)
	} else {
		hero = found.Or(hero)
	}

	upcoming, err := h.events.ListUpcoming(ctx, now, 0)
	if err != nil {
		h.errLog.Log(r, "failed to list upcoming events", err)
		h.errPages.InternalError(w, r)
		return
	}
	past, err := h.events.ListPast(ctx, now)
	if err != nil {
		h.errLog.Log(r, "failed to list past events", err)
		h.errPages.InternalError(w, r)
		return
	}

	vm := ListVM{
		BaseVM:   viewdata.New(r).WithTitle("Events"),
		Hero:     hero,
		Upcoming: upcoming,
		Past:     past,
	}
	templates.Render(w, r, "events/list", vm)
}

// Show renders one published event.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.published(w, r)
	if !ok {
		return
	}
	templates.Render(w, r, "events/show", h.showVM(r, ev))
}

// Register signs a visitor up for the event and re-renders the page.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.published(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.errPages.BadRequest(w, r, "The form could not be read.")
		return
	}
	in := attendeeInput{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Email:        strings.TrimSpace(r.FormValue("email")),
		Phone:        strings.TrimSpace(r.FormValue("phone")),
		Organization: strings.TrimSpace(r.FormValue("organization")),
		Dietary:      strings.TrimSpace(r.FormValue("dietary")),
		SpecialNeeds: strings.TrimSpace(r.FormValue("special_needs")),
	}
	vm := h.showVM(r, ev)
	vm.Form = in

	res, err := h.opts.Limiter.Hit(r.Context(), ThrottleScope, network.GetClientIP(r))
	if err != nil {
		h.logger.Warn("registration throttle unavailable", zap.Error(err))
	}
	if !res.Allowed {
		metrics.Registrations.WithLabelValues(metrics.ResultThrottled).Inc()
		vm.SetError("Too many registration attempts. Please wait a few minutes and try again.")
		w.WriteHeader(http.StatusTooManyRequests)
		templates.Render(w, r, "events/show", vm)
		return
	}

	if v := inputval.Validate(in); v.HasErrors() {
		metrics.Registrations.WithLabelValues(metrics.ResultInvalid).Inc()
		vm.SetError(v.First())
		templates.Render(w, r, "events/show", vm)
		return
	}

	reg, err := h.registrar.Register(r.Context(), ev, registrationstore.Attendee{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Organization: in.Organization,
		Dietary:      in.Dietary,
		SpecialNeeds: in.SpecialNeeds,
	})
	if err != nil {
		result, msg, status := registrationError(err)
		metrics.Registrations.WithLabelValues(result).Inc()
		if result == metrics.ResultError {
			h.errLog.Log(r, "failed to register attendee", err)
		}
		// Capacity may have changed since the page was built.
		if fresh, ferr := h.events.GetByID(r.Context(), ev.ID); ferr == nil {
			form := vm.Form
			vm = h.showVM(r, fresh)
			vm.Form = form
		}
		vm.SetError(msg)
		w.WriteHeader(status)
		templates.Render(w, r, "events/show", vm)
		return
	}
	metrics.Registrations.WithLabelValues(metrics.ResultOK).Inc()

	fresh, err := h.events.GetByID(r.Context(), ev.ID)
	if err != nil {
		h.errLog.Log(r, "failed to reload event after registration", err)
		fresh = ev
	}
	vm = h.showVM(r, fresh)
	vm.Registered = true
	vm.Code = reg.ConfirmationCode
	vm.SetSuccess("You're registered! Your confirmation code is " + reg.ConfirmationCode + ".")

	h.confirm(r.Context(), vm, fresh, reg)
	templates.Render(w, r, "events/show", vm)
}

// registrationError maps a Register failure to a metrics result, a visitor
// message and a status code.
func registrationError(err error) (result, msg string, status int) {
	switch {
	case errors.Is(err, registrationstore.ErrRegistrationClosed):
		return metrics.ResultClosed, "Registration for this event has closed.", http.StatusConflict
	case errors.Is(err, registrationstore.ErrEventFull):
		return metrics.ResultFull, "Sorry, this event is full.", http.StatusConflict
	case errors.Is(err, registrationstore.ErrAlreadyRegistered):
		return metrics.ResultDuplicate, "This email is already registered for this event.", http.StatusConflict
	default:
		return metrics.ResultError, formutil.GenericError, http.StatusInternalServerError
	}
}

// confirm emails the attendee. Failures are logged by the mailer.
func (h *Handler) confirm(ctx context.Context, vm ShowVM, ev models.Event, reg models.Registration) {
	if h.opts.Mailer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Medium())
	defer cancel()

	email := mailer.RegistrationConfirmationEmail(reg.Email, mailer.RegistrationConfirmationData{
		SiteName:         vm.SiteName,
		Name:             reg.Name,
		EventTitle:       ev.Title,
		EventWhen:        ev.StartsAt.In(formutil.Location).Format(whenLayout),
		Location:         ev.Location,
		ConfirmationCode: reg.ConfirmationCode,
		EventURL:         strings.TrimRight(h.opts.BaseURL, "/") + "/events/" + ev.Slug,
	})
	metrics.RecordEmail("registration", h.opts.Mailer.Notify(ctx, email))
}

// published loads the published event named by the slug URL parameter,
// rendering 404 when there is none.
func (h *Handler) published(w http.ResponseWriter, r *http.Request) (models.Event, bool) {
	ev, err := h.events.GetBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if errors.Is(err, eventstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return models.Event{}, false
	}
	if err != nil {
		h.errLog.Log(r, "failed to load event", err)
		h.errPages.InternalError(w, r)
		return models.Event{}, false
	}
	return ev, true
}

func (h *Handler) showVM(r *http.Request, ev models.Event) ShowVM {
	now := h.now()
	vm := ShowVM{
		Base:        formutil.NewBase(r, ev.Title, "/events"),
		Event:       ev,
		Description: htmlsanitize.PrepareForDisplay(ev.Description),
		SpotsLeft:   spotsLeft(ev),
		Open:        ev.RegistrationOpen(now) && ev.Upcoming(now),
	}
	switch {
	case !ev.Upcoming(now):
		vm.ClosedNote = "This event has already taken place."
	case ev.DeadlinePassed(now):
		vm.ClosedNote = "Registration for this event has closed."
	case ev.Full():
		vm.ClosedNote = "This event is full."
	}
	return vm
}

// spotsLeft is the remaining capacity as shown to people.
func spotsLeft(ev models.Event) string {
	if ev.Uncapped() {
		return "Unlimited"
	}
	return strconv.Itoa(ev.SpotsLeft())
}

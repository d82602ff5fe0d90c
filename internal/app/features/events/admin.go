// internal/app/features/events/admin.go
package events

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/app/system/txn"
	"github.com/dalemusser/strataimpact/internal/app/system/uploads"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminListVM lists every event, drafts included.
type AdminListVM struct {
	viewdata.BaseVM
	Events  []models.Event
	Success string
}

// FormVM is the create/edit event form.
type FormVM struct {
	formutil.Base
	ID      string
	Action  string
	Form    eventForm
	Gallery []models.GalleryImage
}

// eventForm holds the raw form values so a failed save re-renders them.
type eventForm struct {
	Title       string `validate:"required,max=200" label:"Title"`
	Slug        string `validate:"max=120" label:"Slug"`
	Summary     string `validate:"max=500" label:"Summary"`
	Description string `validate:"max=100000" label:"Description"`
	Location    string `validate:"max=300" label:"Location"`
	StartsAt    string `validate:"required" label:"Start"`
	EndsAt      string
	Capacity    string
	Deadline    string
	Impact      string `validate:"max=5000" label:"Impact"`
	Published   bool
}

func formFromEvent(ev models.Event) eventForm {
	return eventForm{
		Title:       ev.Title,
		Slug:        ev.Slug,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		StartsAt:    formutil.FormatDateTime(&ev.StartsAt),
		EndsAt:      formutil.FormatDateTime(ev.EndsAt),
		Capacity:    formutil.FormatOptionalInt(ev.Capacity),
		Deadline:    formutil.FormatDateTime(ev.RegistrationDeadline),
		Impact:      formutil.FormatImpact(ev.Impact),
		Published:   ev.Published,
	}
}

func readForm(r *http.Request) eventForm {
	return eventForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Slug:        strings.TrimSpace(r.FormValue("slug")),
		Summary:     strings.TrimSpace(r.FormValue("summary")),
		Description: r.FormValue("description"),
		Location:    strings.TrimSpace(r.FormValue("location")),
		StartsAt:    r.FormValue("starts_at"),
		EndsAt:      r.FormValue("ends_at"),
		Capacity:    r.FormValue("capacity"),
		Deadline:    r.FormValue("registration_deadline"),
		Impact:      r.FormValue("impact"),
		Published:   r.FormValue("published") == "on",
	}
}

// input validates f and converts it to a store input. It returns the
// message to show when the form is not acceptable.
func (f eventForm) input() (eventstore.Input, string) {
	if res := inputval.Validate(f); res.HasErrors() {
		return eventstore.Input{}, res.First()
	}
	if f.Slug != "" && !inputval.IsValidSlug(f.Slug) {
		return eventstore.Input{}, "Slug may contain only lowercase letters, numbers and hyphens."
	}
	starts, err := formutil.ParseDateTime(f.StartsAt)
	if err != nil || starts == nil {
		return eventstore.Input{}, "Start must be a date and time."
	}
	ends, err := formutil.ParseDateTime(f.EndsAt)
	if err != nil {
		return eventstore.Input{}, "End must be a date and time."
	}
	if ends != nil && ends.Before(*starts) {
		return eventstore.Input{}, "End must be after the start."
	}
	deadline, err := formutil.ParseDateTime(f.Deadline)
	if err != nil {
		return eventstore.Input{}, "Registration deadline must be a date and time."
	}
	capacity, err := formutil.ParseOptionalInt(f.Capacity)
	if err != nil {
		return eventstore.Input{}, "Capacity must be a whole number, or blank for unlimited."
	}
	return eventstore.Input{
		Title:                f.Title,
		Slug:                 f.Slug,
		Summary:              f.Summary,
		Description:          htmlsanitize.Sanitize(f.Description),
		Location:             f.Location,
		StartsAt:             *starts,
		EndsAt:               ends,
		Capacity:             capacity,
		RegistrationDeadline: deadline,
		Impact:               formutil.ParseImpact(f.Impact),
		Published:            f.Published,
	}, ""
}

// AdminList shows all events.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	evs, err := h.events.ListAll(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list events", err)
		h.errPages.InternalError(w, r)
		return
	}
	vm := AdminListVM{BaseVM: viewdata.NewBaseVM(r, "Events", "/admin"), Events: evs}
	switch r.URL.Query().Get("success") {
	case "created":
		vm.Success = "Event created."
	case "deleted":
		vm.Success = "Event deleted."
	}
	templates.Render(w, r, "events/admin_list", vm)
}

// New shows an empty event form.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	vm := FormVM{
		Base:   formutil.NewBase(r, "New Event", "/admin/events"),
		Action: "/admin/events",
	}
	templates.Render(w, r, "events/form", vm)
}

// Create saves a new event.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errPages.BadRequest(w, r, "The form could not be read.")
		return
	}
	vm := FormVM{
		Base:   formutil.NewBase(r, "New Event", "/admin/events"),
		Action: "/admin/events",
		Form:   readForm(r),
	}
	in, msg := vm.Form.input()
	if msg != "" {
		vm.SetError(msg)
		templates.Render(w, r, "events/form", vm)
		return
	}

	ev, err := h.events.Create(r.Context(), in)
	if err != nil {
		h.saveFailed(w, r, &vm, err)
		return
	}
	h.opts.Audit.Admin(r, audit.ActionCreated, "event", ev.ID.Hex(), map[string]string{"title": ev.Title})
	http.Redirect(w, r, "/admin/events?success=created", http.StatusSeeOther)
}

// Edit shows the form for an existing event with its gallery.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.byID(w, r)
	if !ok {
		return
	}
	vm := h.editVM(r, ev)
	vm.Form = formFromEvent(ev)
	switch r.URL.Query().Get("success") {
	case "1":
		vm.SetSuccess("Event saved.")
	case "image":
		vm.SetSuccess("Image added to the gallery.")
	case "removed":
		vm.SetSuccess("Image removed.")
	}
	if code := r.URL.Query().Get("error"); code != "" {
		vm.SetError(uploadErrorText(code))
	}
	templates.Render(w, r, "events/form", vm)
}

// Update saves changes to an event.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.byID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.errPages.BadRequest(w, r, "The form could not be read.")
		return
	}
	vm := h.editVM(r, ev)
	vm.Form = readForm(r)

	in, msg := vm.Form.input()
	if msg != "" {
		vm.SetError(msg)
		templates.Render(w, r, "events/form", vm)
		return
	}
	if err := h.events.Update(r.Context(), ev.ID, in); err != nil {
		h.saveFailed(w, r, &vm, err)
		return
	}
	h.opts.Audit.Admin(r, audit.ActionUpdated, "event", ev.ID.Hex(), nil)
	http.Redirect(w, r, "/admin/events/"+ev.ID.Hex()+"/edit?success=1", http.StatusSeeOther)
}

// Delete removes an event, its registrations and its uploaded images.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.byID(w, r)
	if !ok {
		return
	}
	var removed int64
	err := txn.Run(r.Context(), h.db, h.logger, func(ctx context.Context) error {
		if err := h.events.Delete(ctx, ev.ID); err != nil {
			return err
		}
		n, err := h.regs.DeleteByEvent(ctx, ev.ID)
		removed = n
		return err
	})
	if err != nil {
		h.errLog.Log(r, "failed to delete event", err)
		h.errPages.InternalError(w, r)
		return
	}
	for _, img := range ev.Gallery {
		if err := uploads.Remove(r.Context(), h.opts.Storage, img.Path); err != nil {
			h.logger.Warn("failed to remove gallery file", zap.String("path", img.Path), zap.Error(err))
		}
	}
	h.opts.Audit.Admin(r, audit.ActionDeleted, "event", ev.ID.Hex(), map[string]string{
		"title":         ev.Title,
		"registrations": strconv.FormatInt(removed, 10),
	})
	http.Redirect(w, r, "/admin/events?success=deleted", http.StatusSeeOther)
}

func (h *Handler) saveFailed(w http.ResponseWriter, r *http.Request, vm *FormVM, err error) {
	if errors.Is(err, eventstore.ErrDuplicateSlug) {
		vm.SetError("Another event already uses this slug. Choose a different one.")
		templates.Render(w, r, "events/form", vm)
		return
	}
	h.errLog.Log(r, "failed to save event", err)
	vm.SetError(formutil.GenericError)
	w.WriteHeader(http.StatusInternalServerError)
	templates.Render(w, r, "events/form", vm)
}

func (h *Handler) editVM(r *http.Request, ev models.Event) FormVM {
	return FormVM{
		Base:    formutil.NewBase(r, "Edit "+ev.Title, "/admin/events"),
		ID:      ev.ID.Hex(),
		Action:  "/admin/events/" + ev.ID.Hex(),
		Gallery: ev.Gallery,
	}
}

// byID loads the event named by the id URL parameter, rendering 404 when
// the id is malformed or unknown.
func (h *Handler) byID(w http.ResponseWriter, r *http.Request) (models.Event, bool) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errPages.NotFound(w, r)
		return models.Event{}, false
	}
	return h.load(w, r, id)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) (models.Event, bool) {
	ev, err := h.events.GetByID(r.Context(), id)
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

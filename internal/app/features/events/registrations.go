// internal/app/features/events/registrations.go
package events

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	registrationstore "github.com/dalemusser/strataimpact/internal/app/store/registrations"
	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
)

// RegistrationsVM lists the attendees of one event.
type RegistrationsVM struct {
	formutil.Base
	Event         models.Event
	Registrations []models.Registration
	Statuses      []string
	SpotsLeft     string
}

// Registrations lists an event's registrations.
func (h *Handler) Registrations(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.byID(w, r)
	if !ok {
		return
	}
	regs, err := h.regs.ListByEvent(r.Context(), ev.ID)
	if err != nil {
		h.errLog.Log(r, "failed to list registrations", err)
		h.errPages.InternalError(w, r)
		return
	}
	vm := RegistrationsVM{
		Base:          formutil.NewBase(r, "Registrations: "+ev.Title, "/admin/events"),
		Event:         ev,
		Registrations: regs,
		Statuses:      models.AllRegistrationStatuses(),
		SpotsLeft:     spotsLeft(ev),
	}
	switch r.URL.Query().Get("success") {
	case "status":
		vm.SetSuccess("Registration status updated.")
	case "cancelled":
		vm.SetSuccess("Registration cancelled and the spot released.")
	}
	templates.Render(w, r, "events/registrations", vm)
}

// ExportRegistrations downloads an event's registrations as CSV.
func (h *Handler) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.byID(w, r)
	if !ok {
		return
	}
	regs, err := h.regs.ListByEvent(r.Context(), ev.ID)
	if err != nil {
		h.errLog.Log(r, "failed to list registrations", err)
		h.errPages.InternalError(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ev.Slug+"-registrations.csv"))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"name", "email", "phone", "organization", "dietary", "special_needs", "status", "confirmation_code", "registered_at"})
	for _, reg := range regs {
		row := normalize.CSVRow(reg.Name, reg.Email, reg.Phone, reg.Organization, reg.Dietary, reg.SpecialNeeds)
		_ = cw.Write(append(row, reg.Status, reg.ConfirmationCode, reg.CreatedAt.UTC().Format("2006-01-02 15:04:05")))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.errLog.Log(r, "failed to write registrations csv", err)
	}
	h.opts.Audit.Admin(r, audit.ActionExported, "event", ev.ID.Hex(), map[string]string{"registrations": fmt.Sprint(len(regs))})
}

// SetRegistrationStatus changes one registration's status. Capacity is
// left alone; cancelling with a released spot is CancelRegistration.
func (h *Handler) SetRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	ev, reg, ok := h.registrationParams(w, r)
	if !ok {
		return
	}
	status := r.FormValue("status")
	err := h.regs.SetStatus(r.Context(), reg.ID, status)
	switch {
	case errors.Is(err, registrationstore.ErrBadStatus):
		h.errPages.BadRequest(w, r, "Unknown registration status.")
		return
	case errors.Is(err, registrationstore.ErrNotFound):
		h.errPages.NotFound(w, r)
		return
	case err != nil:
		h.errLog.Log(r, "failed to set registration status", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.opts.Audit.Admin(r, audit.ActionStatusChanged, "registration", reg.ID.Hex(), map[string]string{"status": status})
	http.Redirect(w, r, "/admin/events/"+ev.ID.Hex()+"/registrations?success=status", http.StatusSeeOther)
}

// CancelRegistration deletes a registration and frees its slot.
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	ev, reg, ok := h.registrationParams(w, r)
	if !ok {
		return
	}
	err := h.registrar.Cancel(r.Context(), reg.ID)
	if errors.Is(err, registrationstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to cancel registration", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.opts.Audit.Admin(r, audit.ActionDeleted, "registration", reg.ID.Hex(), map[string]string{"event": ev.Title})
	http.Redirect(w, r, "/admin/events/"+ev.ID.Hex()+"/registrations?success=cancelled", http.StatusSeeOther)
}

// registrationParams loads the event and the registration named in the URL.
// A registration that belongs to another event is not found.
func (h *Handler) registrationParams(w http.ResponseWriter, r *http.Request) (models.Event, models.Registration, bool) {
	ev, ok := h.byID(w, r)
	if !ok {
		return models.Event{}, models.Registration{}, false
	}
	regID, err := storeutil.ParseID(chi.URLParam(r, "regID"))
	if err != nil {
		h.errPages.NotFound(w, r)
		return models.Event{}, models.Registration{}, false
	}
	reg, err := h.regs.GetByID(r.Context(), regID)
	if errors.Is(err, registrationstore.ErrNotFound) || (err == nil && reg.EventID != ev.ID) {
		h.errPages.NotFound(w, r)
		return models.Event{}, models.Registration{}, false
	}
	if err != nil {
		h.errLog.Log(r, "failed to load registration", err)
		h.errPages.InternalError(w, r)
		return models.Event{}, models.Registration{}, false
	}
	return ev, reg, true
}

// internal/app/features/events/routes.go
package events

import (
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the public event pages, mounted at /events.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{slug}", h.Show)
	r.Post("/{slug}/register", h.Register)
	return r
}

// AdminRoutes returns the event admin, mounted at /admin/events. Editors
// manage events and galleries; attendee data is admin only.
func AdminRoutes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(authz.ContentRoles...))

	r.Get("/", h.AdminList)
	r.Get("/new", h.New)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.Edit)
	r.Post("/{id}", h.Update)
	r.Post("/{id}/gallery", h.UploadImage)
	r.Post("/{id}/gallery/remove", h.RemoveImage)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(authz.AdminRoles...))
		r.Post("/{id}/delete", h.Delete)
		r.Get("/{id}/registrations", h.Registrations)
		r.Get("/{id}/registrations.csv", h.ExportRegistrations)
		r.Post("/{id}/registrations/{regID}/status", h.SetRegistrationStatus)
		r.Post("/{id}/registrations/{regID}/cancel", h.CancelRegistration)
	})
	return r
}

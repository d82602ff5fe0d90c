// internal/app/features/pages/routes.go
package pages

import (
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// MountPublic adds one GET route per static page slug, e.g. /get-involved.
func MountPublic(r chi.Router, h *Handler) {
	for _, slug := range models.AllPageSlugs() {
		r.Get("/"+slug, h.Show(slug))
	}
}

// EditRoutes returns the page editor, mounted at /admin/pages.
func EditRoutes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(authz.ContentRoles...))

	r.Get("/", h.List)
	r.Get("/{slug}/edit", h.Edit)
	r.Post("/{slug}", h.Update)
	return r
}

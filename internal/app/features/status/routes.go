// internal/app/features/status/routes.go
package status

import (
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the status page, mounted at /admin/status.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole(authz.AdminRoles...))
	r.Get("/", h.Serve)
	r.Post("/jobs/{name}/run", h.RunJob)
	return r
}

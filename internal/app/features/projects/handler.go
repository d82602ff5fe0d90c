// internal/app/features/projects/handler.go
package projects

import (
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the public project pages and the project admin.
type Handler struct {
	projects *projectstore.Store
	storage  storage.Store
	audit    *auditlog.Logger
	errLog   *errorsfeature.ErrorLogger
	errPages *errorsfeature.Handler
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new projects Handler. store may be nil, which
// disables image uploads but keeps the image URL field.
func NewHandler(db *mongo.Database, store storage.Store, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		projects: projectstore.New(db),
		storage:  store,
		audit:    audit,
		errLog:   errLog,
		errPages: errorsfeature.NewHandler(),
		logger:   logger,
		now:      time.Now,
	}
}

// Routes returns the public project pages, mounted at /projects.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{slug}", h.Show)
	return r
}

// AdminRoutes returns the project admin, mounted at /admin/projects.
func AdminRoutes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(authz.ContentRoles...))
	r.Get("/", h.AdminList)
	r.Get("/new", h.New)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.Edit)
	r.Post("/{id}", h.Update)
	r.Post("/{id}/delete", h.Delete)
	return r
}

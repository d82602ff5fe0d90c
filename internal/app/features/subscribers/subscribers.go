// internal/app/features/subscribers/subscribers.go
package subscribers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	subscriberstore "github.com/dalemusser/strataimpact/internal/app/store/subscribers"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const perPage = 50

// Handler serves the subscriber admin.
type Handler struct {
	subs     *subscriberstore.Store
	audit    *auditlog.Logger
	errLog   *errorsfeature.ErrorLogger
	errPages *errorsfeature.Handler
	logger   *zap.Logger
}

// NewHandler creates a new subscribers Handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		subs:     subscriberstore.New(db),
		audit:    audit,
		errLog:   errLog,
		errPages: errorsfeature.NewHandler(),
		logger:   logger,
	}
}

// AdminRoutes returns the subscriber admin, mounted at /admin/subscribers.
func AdminRoutes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(authz.AdminRoles...))
	r.Get("/", h.List)
	r.Get("/export.csv", h.Export)
	r.Post("/{id}/delete", h.Delete)
	return r
}

// ListVM is one page of subscribers.
type ListVM struct {
	viewdata.BaseVM
	Subscribers []models.Subscriber
	Query       string
	Pager       storeutil.PageInfo
	Success     string
}

// List shows subscribers, newest first, filtered by ?q=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := query.Get(r, "q")
	page := formutil.PageParam(r)
	subs, total, err := h.subs.List(r.Context(), q, page, perPage)
	if err != nil {
		h.errLog.Log(r, "failed to list subscribers", err)
		h.errPages.InternalError(w, r)
		return
	}
	vm := ListVM{
		BaseVM:      viewdata.NewBaseVM(r, "Subscribers ("+strconv.FormatInt(total, 10)+")", "/admin"),
		Subscribers: subs,
		Query:       q,
		Pager:       storeutil.NewPageInfo(page, perPage, total).WithQuery(url.Values{"q": {q}}),
	}
	if r.URL.Query().Get("success") == "deleted" {
		vm.Success = "Subscriber removed."
	}
	templates.Render(w, r, "subscribers/list", vm)
}

// Export downloads every subscriber as CSV.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.All(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to export subscribers", err)
		h.errPages.InternalError(w, r)
		return
	}
	name := "subscribers-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"email", "name", "source", "subscribed_at"})
	for _, s := range subs {
		_ = cw.Write(append(normalize.CSVRow(s.Email, s.Name, s.Source), s.CreatedAt.UTC().Format(time.RFC3339)))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.errLog.Log(r, "failed to write subscriber csv", err)
	}
	h.audit.Admin(r, audit.ActionExported, "subscribers", "", map[string]string{"count": strconv.Itoa(len(subs))})
}

// Delete removes one subscriber.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errPages.NotFound(w, r)
		return
	}
	err = h.subs.Delete(r.Context(), id)
	if errors.Is(err, subscriberstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to delete subscriber", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.audit.Admin(r, audit.ActionDeleted, "subscriber", id.Hex(), nil)
	http.Redirect(w, r, "/admin/subscribers?success=deleted", http.StatusSeeOther)
}

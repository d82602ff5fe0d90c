// internal/app/features/auditlog/auditlog.go
package auditlog

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const pageSize = 50

// Handler provides audit log handlers.
type Handler struct {
	auditStore *audit.Store
	errLog     *errorsfeature.ErrorLogger
	errPages   *errorsfeature.Handler
	logger     *zap.Logger
}

// NewHandler creates a new audit log Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		auditStore: audit.New(db),
		errLog:     errLog,
		errPages:   errorsfeature.NewHandler(),
		logger:     logger,
	}
}

// listItem is a single audit event row for display.
type listItem struct {
	Timestamp time.Time
	Category  string
	Action    string
	Actor     string
	Target    string
	IP        string
	Success   bool
	Reason    string
	Details   string
}

// option is one entry of a filter dropdown.
type option struct {
	Value string
	Label string
}

// listData is the view model for the audit log list page.
type listData struct {
	viewdata.BaseVM
	Items []listItem

	Category   string
	TargetKind string
	Since      string

	Categories  []option
	TargetKinds []option
	SinceRanges []option

	Total int64
	Pager storeutil.PageInfo
}

var categories = []option{
	{Value: audit.CategoryAuth, Label: "Sign-ins"},
	{Value: audit.CategoryAdmin, Label: "Content changes"},
}

var targetKinds = []option{
	{Value: "event", Label: "Events"},
	{Value: "registration", Label: "Registrations"},
	{Value: "project", Label: "Projects"},
	{Value: "faq", Label: "FAQs"},
	{Value: "page", Label: "Pages"},
	{Value: "content", Label: "Settings"},
	{Value: "message", Label: "Messages"},
	{Value: "subscriber", Label: "Subscribers"},
	{Value: "user", Label: "Users"},
}

var sinceRanges = []option{
	{Value: "1d", Label: "Last 24 hours"},
	{Value: "7d", Label: "Last 7 days"},
	{Value: "30d", Label: "Last 30 days"},
}

var sinceDurations = map[string]time.Duration{
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// Routes returns the audit log, mounted at /admin/audit.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole(authz.AdminRoles...))
	r.Get("/", h.list)
	return r
}

// list displays the audit log, newest first. Unknown filter values are
// ignored.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	category := pick(query.Get(r, "category"), categories)
	targetKind := pick(query.Get(r, "kind"), targetKinds)
	since := pick(query.Get(r, "since"), sinceRanges)
	page := formutil.PageParam(r)

	filter := audit.QueryFilter{
		Category:   category,
		TargetKind: targetKind,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	}
	if d, ok := sinceDurations[since]; ok {
		t := time.Now().UTC().Add(-d)
		filter.Since = &t
	}

	events, err := h.auditStore.Query(r.Context(), filter)
	if err != nil {
		h.errLog.Log(r, "failed to query audit events", err)
		h.errPages.InternalError(w, r)
		return
	}
	total, err := h.auditStore.Count(r.Context(), filter)
	if err != nil {
		h.logger.Warn("failed to count audit events", zap.Error(err))
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			Timestamp: e.CreatedAt,
			Category:  e.Category,
			Action:    strings.ReplaceAll(e.Action, "_", " "),
			Actor:     e.ActorLogin,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.Reason,
			Details:   formatDetails(e.Details),
		}
		if e.TargetKind != "" {
			item.Target = e.TargetKind + " " + e.TargetID
		}
		items = append(items, item)
	}

	vm := listData{
		BaseVM:      viewdata.NewBaseVM(r, "Audit log", "/admin"),
		Items:       items,
		Category:    category,
		TargetKind:  targetKind,
		Since:       since,
		Categories:  categories,
		TargetKinds: targetKinds,
		SinceRanges: sinceRanges,
		Total:       total,
		Pager: storeutil.NewPageInfo(page, pageSize, total).WithQuery(url.Values{
			"category": {category},
			"kind":     {targetKind},
			"since":    {since},
		}),
	}
	templates.Render(w, r, "auditlog/list", vm)
}

func pick(v string, opts []option) string {
	for _, o := range opts {
		if o.Value == v {
			return v
		}
	}
	return ""
}

// formatDetails renders details as "k=v" pairs in key order.
func formatDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + details[k]
	}
	return strings.Join(parts, ", ")
}

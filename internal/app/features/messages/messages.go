// internal/app/features/messages/messages.go
package messages

import (
	"errors"
	"net/http"
	"net/url"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	contactstore "github.com/dalemusser/strataimpact/internal/app/store/contacts"
	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
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

const perPage = 25

// Handler serves the contact message inbox.
type Handler struct {
	msgs     *contactstore.Store
	audit    *auditlog.Logger
	errLog   *errorsfeature.ErrorLogger
	errPages *errorsfeature.Handler
	logger   *zap.Logger
}

// NewHandler creates a new messages Handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		msgs:     contactstore.New(db),
		audit:    audit,
		errLog:   errLog,
		errPages: errorsfeature.NewHandler(),
		logger:   logger,
	}
}

// AdminRoutes returns the inbox, mounted at /admin/messages.
func AdminRoutes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(authz.AdminRoles...))
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/status", h.SetStatus)
	r.Post("/{id}/delete", h.Delete)
	return r
}

// StatusTab is one status filter link with its count.
type StatusTab struct {
	Status string
	Count  int64
	Active bool
}

// ListVM is one page of the inbox.
type ListVM struct {
	viewdata.BaseVM
	Messages []models.ContactMessage
	Tabs     []StatusTab
	Status   string
	Pager    storeutil.PageInfo
	Success  string
}

// ShowVM is one message.
type ShowVM struct {
	formutil.Base
	Message  models.ContactMessage
	Statuses []string
	ReplyURL string
}

// List shows messages, newest first. ?status= narrows the list; without
// it archived messages are hidden.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := normalize.Status(query.Get(r, "status"))
	if status != "" && !models.IsValidMessageStatus(status) {
		h.errPages.BadRequest(w, r, "Unknown message status.")
		return
	}
	page := formutil.PageParam(r)
	ctx := r.Context()

	msgs, total, err := h.msgs.List(ctx, contactstore.ListFilter{Status: status, Page: page, PerPage: perPage})
	if err != nil {
		h.errLog.Log(r, "failed to list messages", err)
		h.errPages.InternalError(w, r)
		return
	}
	counts, err := h.msgs.CountByStatus(ctx)
	if err != nil {
		h.errLog.Log(r, "failed to count messages", err)
		counts = map[string]int64{}
	}

	vm := ListVM{
		BaseVM:   viewdata.NewBaseVM(r, "Messages", "/admin"),
		Messages: msgs,
		Status:   status,
		Pager:    storeutil.NewPageInfo(page, perPage, total).WithQuery(url.Values{"status": {status}}),
	}
	for _, s := range models.AllMessageStatuses() {
		vm.Tabs = append(vm.Tabs, StatusTab{Status: s, Count: counts[s], Active: s == status})
	}
	if r.URL.Query().Get("success") == "deleted" {
		vm.Success = "Message deleted."
	}
	templates.Render(w, r, "messages/list", vm)
}

// Show displays one message and marks it read if it was new.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.byID(w, r)
	if !ok {
		return
	}
	changed, err := h.msgs.MarkRead(r.Context(), msg.ID)
	if err != nil {
		h.errLog.Log(r, "failed to mark message read", err)
	} else if changed {
		msg.Status = models.MessageStatusRead
	}

	vm := ShowVM{
		Base:     formutil.NewBase(r, msg.Subject, "/admin/messages"),
		Message:  msg,
		Statuses: models.AllMessageStatuses(),
		ReplyURL: "mailto:" + msg.Email + "?subject=" + url.PathEscape("Re: "+msg.Subject),
	}
	if r.URL.Query().Get("success") == "status" {
		vm.SetSuccess("Status updated.")
	}
	templates.Render(w, r, "messages/show", vm)
}

// SetStatus moves a message to the posted status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.byID(w, r)
	if !ok {
		return
	}
	status := r.FormValue("status")
	err := h.msgs.SetStatus(r.Context(), msg.ID, status)
	switch {
	case errors.Is(err, contactstore.ErrBadStatus):
		h.errPages.BadRequest(w, r, "Unknown message status.")
		return
	case errors.Is(err, contactstore.ErrNotFound):
		h.errPages.NotFound(w, r)
		return
	case err != nil:
		h.errLog.Log(r, "failed to set message status", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.audit.Admin(r, audit.ActionStatusChanged, "message", msg.ID.Hex(), map[string]string{
		"from": msg.Status,
		"to":   normalize.Status(status),
	})
	http.Redirect(w, r, "/admin/messages/"+msg.ID.Hex()+"?success=status", http.StatusSeeOther)
}

// Delete removes a message permanently.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.byID(w, r)
	if !ok {
		return
	}
	if err := h.msgs.Delete(r.Context(), msg.ID); err != nil && !errors.Is(err, contactstore.ErrNotFound) {
		h.errLog.Log(r, "failed to delete message", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.audit.Admin(r, audit.ActionDeleted, "message", msg.ID.Hex(), map[string]string{"from": msg.Email})
	http.Redirect(w, r, "/admin/messages?success=deleted", http.StatusSeeOther)
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) (models.ContactMessage, bool) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errPages.NotFound(w, r)
		return models.ContactMessage{}, false
	}
	msg, err := h.msgs.GetByID(r.Context(), id)
	if errors.Is(err, contactstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return models.ContactMessage{}, false
	}
	if err != nil {
		h.errLog.Log(r, "failed to load message", err)
		h.errPages.InternalError(w, r)
		return models.ContactMessage{}, false
	}
	return msg, true
}

// internal/app/features/faqs/faqs.go
package faqs

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	faqstore "github.com/dalemusser/strataimpact/internal/app/store/faqs"
	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the FAQ admin. The public FAQ lists are rendered by the
// pages and contact features.
type Handler struct {
	faqs     *faqstore.Store
	audit    *auditlog.Logger
	errLog   *errorsfeature.ErrorLogger
	errPages *errorsfeature.Handler
	logger   *zap.Logger
}

// NewHandler creates a new FAQ admin Handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		faqs:     faqstore.New(db, logger),
		audit:    audit,
		errLog:   errLog,
		errPages: errorsfeature.NewHandler(),
		logger:   logger,
	}
}

// AdminRoutes returns the FAQ admin, mounted at /admin/faqs.
func AdminRoutes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(authz.ContentRoles...))
	r.Get("/", h.List)
	r.Get("/new", h.New)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.Edit)
	r.Post("/{id}", h.Update)
	r.Post("/{id}/delete", h.Delete)
	r.Post("/{id}/toggle", h.Toggle)
	r.Post("/{id}/up", h.MoveUp)
	r.Post("/{id}/down", h.MoveDown)
	return r
}

// ListVM is the FAQ admin list.
type ListVM struct {
	viewdata.BaseVM
	FAQs    []models.FAQ
	Success string
}

// FormVM is the FAQ create/edit form.
type FormVM struct {
	formutil.Base
	Action string
	Form   faqInput
}

type faqInput struct {
	Question  string `validate:"required,max=300" label:"Question"`
	Answer    string `validate:"required,max=5000" label:"Answer"`
	Published bool
}

func (f faqInput) store() faqstore.Input {
	return faqstore.Input{Question: f.Question, Answer: f.Answer, Published: f.Published}
}

func readForm(r *http.Request) faqInput {
	return faqInput{
		Question:  strings.TrimSpace(r.FormValue("question")),
		Answer:    strings.TrimSpace(r.FormValue("answer")),
		Published: r.FormValue("published") == "on",
	}
}

var successNotes = map[string]string{
	"created":   "FAQ added.",
	"saved":     "FAQ saved.",
	"deleted":   "FAQ deleted.",
	"toggled":   "Visibility updated.",
	"reordered": "Order updated.",
}

// List shows every FAQ in display order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.faqs.List(r.Context(), false)
	if err != nil {
		h.errLog.Log(r, "failed to list faqs", err)
		h.errPages.InternalError(w, r)
		return
	}
	vm := ListVM{
		BaseVM:  viewdata.NewBaseVM(r, "FAQs", "/admin"),
		FAQs:    faqs,
		Success: successNotes[r.URL.Query().Get("success")],
	}
	templates.Render(w, r, "faqs/list", vm)
}

// New shows an empty FAQ form.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	vm := FormVM{Base: formutil.NewBase(r, "New FAQ", "/admin/faqs"), Action: "/admin/faqs"}
	vm.Form.Published = true
	templates.Render(w, r, "faqs/form", vm)
}

// Create adds an FAQ at the end of the list.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	vm := FormVM{Base: formutil.NewBase(r, "New FAQ", "/admin/faqs"), Action: "/admin/faqs", Form: readForm(r)}
	if v := inputval.Validate(vm.Form); v.HasErrors() {
		vm.SetError(v.First())
		templates.Render(w, r, "faqs/form", vm)
		return
	}
	faq, err := h.faqs.Create(r.Context(), vm.Form.store())
	if err != nil {
		h.errLog.Log(r, "failed to create faq", err)
		vm.SetError(formutil.GenericError)
		w.WriteHeader(http.StatusInternalServerError)
		templates.Render(w, r, "faqs/form", vm)
		return
	}
	h.audit.Admin(r, audit.ActionCreated, "faq", faq.ID.Hex(), nil)
	http.Redirect(w, r, "/admin/faqs?success=created", http.StatusSeeOther)
}

// Edit shows the form for one FAQ.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	faq, ok := h.byID(w, r)
	if !ok {
		return
	}
	vm := FormVM{
		Base:   formutil.NewBase(r, "Edit FAQ", "/admin/faqs"),
		Action: "/admin/faqs/" + faq.ID.Hex(),
		Form:   faqInput{Question: faq.Question, Answer: faq.Answer, Published: faq.Published},
	}
	templates.Render(w, r, "faqs/form", vm)
}

// Update saves one FAQ.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	faq, ok := h.byID(w, r)
	if !ok {
		return
	}
	vm := FormVM{
		Base:   formutil.NewBase(r, "Edit FAQ", "/admin/faqs"),
		Action: "/admin/faqs/" + faq.ID.Hex(),
		Form:   readForm(r),
	}
	if v := inputval.Validate(vm.Form); v.HasErrors() {
		vm.SetError(v.First())
		templates.Render(w, r, "faqs/form", vm)
		return
	}
	if err := h.faqs.Update(r.Context(), faq.ID, vm.Form.store()); err != nil {
		h.errLog.Log(r, "failed to update faq", err)
		vm.SetError(formutil.GenericError)
		w.WriteHeader(http.StatusInternalServerError)
		templates.Render(w, r, "faqs/form", vm)
		return
	}
	h.audit.Admin(r, audit.ActionUpdated, "faq", faq.ID.Hex(), nil)
	http.Redirect(w, r, "/admin/faqs?success=saved", http.StatusSeeOther)
}

// Delete removes one FAQ.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	faq, ok := h.byID(w, r)
	if !ok {
		return
	}
	if err := h.faqs.Delete(r.Context(), faq.ID); err != nil && !errors.Is(err, faqstore.ErrNotFound) {
		h.errLog.Log(r, "failed to delete faq", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.audit.Admin(r, audit.ActionDeleted, "faq", faq.ID.Hex(), map[string]string{"question": faq.Question})
	http.Redirect(w, r, "/admin/faqs?success=deleted", http.StatusSeeOther)
}

// Toggle flips an FAQ between published and hidden.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	faq, ok := h.byID(w, r)
	if !ok {
		return
	}
	published, err := h.faqs.TogglePublished(r.Context(), faq.ID)
	if err != nil {
		h.errLog.Log(r, "failed to toggle faq", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.audit.Admin(r, audit.ActionUpdated, "faq", faq.ID.Hex(), map[string]string{"published": strconv.FormatBool(published)})
	http.Redirect(w, r, "/admin/faqs?success=toggled", http.StatusSeeOther)
}

// MoveUp swaps an FAQ with the one before it.
func (h *Handler) MoveUp(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "up", h.faqs.MoveUp)
}

// MoveDown swaps an FAQ with the one after it.
func (h *Handler) MoveDown(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "down", h.faqs.MoveDown)
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request, dir string, fn func(ctx context.Context, id primitive.ObjectID) error) {
	faq, ok := h.byID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), faq.ID); err != nil {
		h.errLog.Log(r, "failed to reorder faqs", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.audit.Admin(r, audit.ActionReordered, "faq", faq.ID.Hex(), map[string]string{"direction": dir})
	http.Redirect(w, r, "/admin/faqs?success=reordered", http.StatusSeeOther)
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) (models.FAQ, bool) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errPages.NotFound(w, r)
		return models.FAQ{}, false
	}
	faq, err := h.faqs.GetByID(r.Context(), id)
	if errors.Is(err, faqstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return models.FAQ{}, false
	}
	if err != nil {
		h.errLog.Log(r, "failed to load faq", err)
		h.errPages.InternalError(w, r)
		return models.FAQ{}, false
	}
	return faq, true
}

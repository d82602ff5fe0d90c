// internal/app/features/profile/profile.go
package profile

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	userstore "github.com/dalemusser/strataimpact/internal/app/store/users"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authutil"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own account page.
type Handler struct {
	userStore   *userstore.Store
	errLog      *errorsfeature.ErrorLogger
	errPages    *errorsfeature.Handler
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		userStore:   userstore.New(db),
		errLog:      errLog,
		errPages:    errorsfeature.NewHandler(),
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// Routes returns the account page, mounted at /admin/profile.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole(authz.ContentRoles...))
	r.Get("/", h.show)
	r.Post("/name", h.updateName)
	r.Post("/password", h.changePassword)
	return r
}

type nameForm struct {
	FullName string `validate:"required,max=120" label:"Name"`
}

// ProfileVM is the view model for the account page.
type ProfileVM struct {
	formutil.Base
	User          models.User
	Form          nameForm
	PasswordRules string
}

var successNotes = map[string]string{
	"name":     "Name saved.",
	"password": "Password changed.",
}

func (h *Handler) vm(r *http.Request, u models.User) ProfileVM {
	vm := ProfileVM{
		Base:          formutil.NewBase(r, "My account", "/admin"),
		User:          u,
		Form:          nameForm{FullName: u.FullName},
		PasswordRules: authutil.PasswordRules(),
	}
	vm.SetSuccess(successNotes[r.URL.Query().Get("success")])
	return vm
}

// current loads the signed-in user. It writes the response and returns
// false when that is not possible.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return models.User{}, false
	}
	u, err := h.userStore.GetByID(r.Context(), su.UserID())
	if errors.Is(err, userstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return models.User{}, false
	}
	if err != nil {
		h.errLog.Log(r, "failed to load current user", err)
		h.errPages.InternalError(w, r)
		return models.User{}, false
	}
	return u, true
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}
	templates.Render(w, r, "profile/show", h.vm(r, u))
}

func (h *Handler) rerender(w http.ResponseWriter, r *http.Request, vm ProfileVM, status int, msg string) {
	vm.Success = ""
	vm.SetError(msg)
	w.WriteHeader(status)
	templates.Render(w, r, "profile/show", vm)
}

func (h *Handler) updateName(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}
	vm := h.vm(r, u)
	vm.Form = nameForm{FullName: r.FormValue("full_name")}
	if v := inputval.Validate(vm.Form); v.HasErrors() {
		h.rerender(w, r, vm, http.StatusBadRequest, v.First())
		return
	}
	if err := h.userStore.Update(r.Context(), u.ID, userstore.UserUpdate{FullName: &vm.Form.FullName}); err != nil {
		h.errLog.Log(r, "failed to update own name", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.auditLogger.Admin(r, audit.ActionUpdated, "user", u.ID.Hex(), map[string]string{"full_name": "changed"})
	http.Redirect(w, r, "/admin/profile?success=name", http.StatusSeeOther)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}
	vm := h.vm(r, u)

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if !authutil.CheckPassword(current, u.PasswordHash) {
		h.rerender(w, r, vm, http.StatusBadRequest, "Current password is incorrect.")
		return
	}
	if err := authutil.ValidatePassword(next); err != nil {
		h.rerender(w, r, vm, http.StatusBadRequest, err.Error())
		return
	}
	if next != confirm {
		h.rerender(w, r, vm, http.StatusBadRequest, "New passwords do not match.")
		return
	}
	if next == current {
		h.rerender(w, r, vm, http.StatusBadRequest, "New password cannot be the same as your current password.")
		return
	}

	hash, err := authutil.HashPassword(next)
	if err == nil {
		err = h.userStore.UpdatePassword(r.Context(), u.ID, hash)
	}
	if err != nil {
		h.errLog.Log(r, "failed to change own password", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.auditLogger.Admin(r, audit.ActionUpdated, "user", u.ID.Hex(), map[string]string{"password": "changed"})
	http.Redirect(w, r, "/admin/profile?success=password", http.StatusSeeOther)
}

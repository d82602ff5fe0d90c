// internal/app/features/systemusers/systemusers.go
package systemusers

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The email address an admin types to sign in

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	userstore "github.com/dalemusser/strataimpact/internal/app/store/users"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authutil"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	msgLastAdmin = "At least one active admin is required."
	msgSelf      = "You cannot change your own role or status, or delete your own account."
)

// Handler manages back-office accounts.
type Handler struct {
	userStore   *userstore.Store
	errLog      *errorsfeature.ErrorLogger
	errPages    *errorsfeature.Handler
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new system users Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		userStore:   userstore.New(db),
		errLog:      errLog,
		errPages:    errorsfeature.NewHandler(),
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// Routes returns the account screens, mounted at /admin/users.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole(authz.AdminRoles...))
	r.Get("/", h.list)
	r.Get("/new", h.showNew)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.showEdit)
	r.Post("/{id}", h.update)
	r.Post("/{id}/password", h.setPassword)
	r.Post("/{id}/delete", h.delete)
	return r
}

// ListVM is the view model for the users list.
type ListVM struct {
	viewdata.BaseVM
	Users   []models.User
	Success string
}

type newUserForm struct {
	FullName string `validate:"required,max=120" label:"Name"`
	LoginID  string `validate:"required,mailaddr,max=254" label:"Email"`
	Role     string `validate:"required,oneof=admin editor" label:"Role"`
	Password string
}

type editForm struct {
	FullName string `validate:"required,max=120" label:"Name"`
	Role     string `validate:"required,oneof=admin editor" label:"Role"`
	Status   string `validate:"required,oneof=active disabled" label:"Status"`
}

// NewUserVM is the view model for the new user form.
type NewUserVM struct {
	formutil.Base
	Form          newUserForm
	Roles         []string
	PasswordRules string
}

// EditVM is the view model for editing a user.
type EditVM struct {
	formutil.Base
	User          models.User
	Form          editForm
	Roles         []string
	Statuses      []string
	IsSelf        bool
	PasswordRules string
}

var successNotes = map[string]string{
	"created":  "User created.",
	"saved":    "User saved.",
	"password": "Password changed.",
	"deleted":  "User deleted.",
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.List(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list users", err)
		h.errPages.InternalError(w, r)
		return
	}
	templates.Render(w, r, "systemusers/list", ListVM{
		BaseVM:  viewdata.NewBaseVM(r, "Users", "/admin"),
		Users:   users,
		Success: successNotes[r.URL.Query().Get("success")],
	})
}

func (h *Handler) newVM(r *http.Request, form newUserForm) NewUserVM {
	return NewUserVM{
		Base:          formutil.NewBase(r, "New user", "/admin/users"),
		Form:          form,
		Roles:         models.AllRoles(),
		PasswordRules: authutil.PasswordRules(),
	}
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "systemusers/new", h.newVM(r, newUserForm{Role: models.RoleEditor}))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	vm := h.newVM(r, newUserForm{
		FullName: r.FormValue("full_name"),
		LoginID:  normalize.Email(r.FormValue("login_id")),
		Role:     normalize.Role(r.FormValue("role")),
		Password: r.FormValue("password"),
	})
	if v := inputval.Validate(vm.Form); v.HasErrors() {
		vm.SetError(v.First())
		templates.Render(w, r, "systemusers/new", vm)
		return
	}
	if err := authutil.ValidatePassword(vm.Form.Password); err != nil {
		vm.SetError(err.Error())
		templates.Render(w, r, "systemusers/new", vm)
		return
	}
	hash, err := authutil.HashPassword(vm.Form.Password)
	if err != nil {
		h.errLog.Log(r, "failed to hash password", err)
		h.errPages.InternalError(w, r)
		return
	}

	user, err := h.userStore.Create(r.Context(), models.User{
		FullName:     vm.Form.FullName,
		LoginID:      vm.Form.LoginID,
		PasswordHash: hash,
		Role:         vm.Form.Role,
	})
	if errors.Is(err, userstore.ErrDuplicateLoginID) {
		vm.SetError("Another user already signs in with this email.")
		templates.Render(w, r, "systemusers/new", vm)
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to create user", err)
		vm.SetError(formutil.GenericError)
		w.WriteHeader(http.StatusInternalServerError)
		templates.Render(w, r, "systemusers/new", vm)
		return
	}
	h.auditLogger.Admin(r, audit.ActionCreated, "user", user.ID.Hex(), map[string]string{"login": user.LoginID, "role": user.Role})
	http.Redirect(w, r, "/admin/users?success=created", http.StatusSeeOther)
}

func (h *Handler) editVM(r *http.Request, u models.User, form editForm) EditVM {
	vm := EditVM{
		Base:          formutil.NewBase(r, "Edit "+u.FullName, "/admin/users"),
		User:          u,
		Form:          form,
		Roles:         models.AllRoles(),
		Statuses:      []string{models.UserActive, models.UserDisabled},
		IsSelf:        isSelf(r, u.ID),
		PasswordRules: authutil.PasswordRules(),
	}
	vm.SetSuccess(successNotes[r.URL.Query().Get("success")])
	return vm
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	u, ok := h.byID(w, r)
	if !ok {
		return
	}
	templates.Render(w, r, "systemusers/edit", h.editVM(r, u, editForm{FullName: u.FullName, Role: u.Role, Status: u.Status}))
}

// update changes name, role and status. An admin cannot change their own
// role or status, and the last active admin cannot be demoted or disabled.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	u, ok := h.byID(w, r)
	if !ok {
		return
	}
	form := editForm{
		FullName: r.FormValue("full_name"),
		Role:     normalize.Role(r.FormValue("role")),
		Status:   normalize.Status(r.FormValue("status")),
	}
	vm := h.editVM(r, u, form)
	vm.Success = ""
	if v := inputval.Validate(form); v.HasErrors() {
		vm.SetError(v.First())
		templates.Render(w, r, "systemusers/edit", vm)
		return
	}

	losesAdmin := isActiveAdmin(u) && (form.Role != models.RoleAdmin || form.Status != models.UserActive)
	if vm.IsSelf && (form.Role != u.Role || form.Status != u.Status) {
		vm.SetError(msgSelf)
		w.WriteHeader(http.StatusConflict)
		templates.Render(w, r, "systemusers/edit", vm)
		return
	}
	if losesAdmin {
		if msg, ok := h.keepsAnAdmin(r.Context()); !ok {
			vm.SetError(msg)
			w.WriteHeader(http.StatusConflict)
			templates.Render(w, r, "systemusers/edit", vm)
			return
		}
	}

	err := h.userStore.Update(r.Context(), u.ID, userstore.UserUpdate{
		FullName: &form.FullName,
		Role:     &form.Role,
		Status:   &form.Status,
	})
	if err != nil {
		h.errLog.Log(r, "failed to update user", err)
		vm.SetError(formutil.GenericError)
		w.WriteHeader(http.StatusInternalServerError)
		templates.Render(w, r, "systemusers/edit", vm)
		return
	}
	h.auditLogger.Admin(r, audit.ActionUpdated, "user", u.ID.Hex(), map[string]string{"role": form.Role, "status": form.Status})
	http.Redirect(w, r, "/admin/users/"+u.ID.Hex()+"/edit?success=saved", http.StatusSeeOther)
}

func (h *Handler) setPassword(w http.ResponseWriter, r *http.Request) {
	u, ok := h.byID(w, r)
	if !ok {
		return
	}
	vm := h.editVM(r, u, editForm{FullName: u.FullName, Role: u.Role, Status: u.Status})
	vm.Success = ""
	password := r.FormValue("password")
	if err := authutil.ValidatePassword(password); err != nil {
		vm.SetError(err.Error())
		templates.Render(w, r, "systemusers/edit", vm)
		return
	}
	hash, err := authutil.HashPassword(password)
	if err == nil {
		err = h.userStore.UpdatePassword(r.Context(), u.ID, hash)
	}
	if err != nil {
		h.errLog.Log(r, "failed to set password", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.auditLogger.Admin(r, audit.ActionUpdated, "user", u.ID.Hex(), map[string]string{"password": "changed"})
	http.Redirect(w, r, "/admin/users/"+u.ID.Hex()+"/edit?success=password", http.StatusSeeOther)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.byID(w, r)
	if !ok {
		return
	}
	msg := ""
	if isSelf(r, u.ID) {
		msg = msgSelf
	} else if isActiveAdmin(u) {
		msg, _ = h.keepsAnAdmin(r.Context())
	}
	if msg != "" {
		vm := h.editVM(r, u, editForm{FullName: u.FullName, Role: u.Role, Status: u.Status})
		vm.Success = ""
		vm.SetError(msg)
		w.WriteHeader(http.StatusConflict)
		templates.Render(w, r, "systemusers/edit", vm)
		return
	}

	if err := h.userStore.Delete(r.Context(), u.ID); err != nil && !errors.Is(err, userstore.ErrNotFound) {
		h.errLog.Log(r, "failed to delete user", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.auditLogger.Admin(r, audit.ActionDeleted, "user", u.ID.Hex(), map[string]string{"login": u.LoginID})
	http.Redirect(w, r, "/admin/users?success=deleted", http.StatusSeeOther)
}

// keepsAnAdmin reports whether another active admin remains if one is
// removed. A failed count is treated as no.
func (h *Handler) keepsAnAdmin(ctx context.Context) (string, bool) {
	n, err := h.userStore.CountActiveAdmins(ctx)
	if err != nil {
		h.logger.Warn("failed to count active admins", zap.Error(err))
		return formutil.GenericError, false
	}
	if n <= 1 {
		return msgLastAdmin, false
	}
	return "", true
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errPages.NotFound(w, r)
		return models.User{}, false
	}
	u, err := h.userStore.GetByID(r.Context(), id)
	if errors.Is(err, userstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return models.User{}, false
	}
	if err != nil {
		h.errLog.Log(r, "failed to load user", err)
		h.errPages.InternalError(w, r)
		return models.User{}, false
	}
	return u, true
}

func isActiveAdmin(u models.User) bool {
	return u.Role == models.RoleAdmin && u.Status == models.UserActive
}

func isSelf(r *http.Request, id primitive.ObjectID) bool {
	cur, ok := auth.CurrentUser(r)
	return ok && cur.UserID() == id
}

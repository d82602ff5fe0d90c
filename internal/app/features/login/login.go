// internal/app/features/login/login.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The email address an admin types to sign in

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/loginlock"
	userstore "github.com/dalemusser/strataimpact/internal/app/store/users"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authutil"
	"github.com/dalemusser/strataimpact/internal/app/system/metrics"
	"github.com/dalemusser/strataimpact/internal/app/system/network"
	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/app/system/throttle"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ThrottleScope keys the per-IP login throttle.
const ThrottleScope = "login"

// Login results for metrics.LoginAttempts.
const (
	resultOK        = "ok"
	resultInvalid   = "invalid"
	resultDisabled  = "disabled"
	resultLocked    = "locked"
	resultThrottled = "throttled"
	resultError     = "error"
)

const invalidCredentials = "Invalid email or password."

// Options are the optional collaborators of the login handler. A nil
// Limiter or Lockout disables that protection.
type Options struct {
	Limiter *throttle.Limiter
	Lockout *loginlock.Store
}

// Handler provides login handlers.
type Handler struct {
	userStore   *userstore.Store
	sessionMgr  *auth.SessionManager
	errLog      *errorsfeature.ErrorLogger
	errPages    *errorsfeature.Handler
	auditLogger *auditlog.Logger
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

// NewHandler creates a new login Handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	opts Options,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userStore:   userstore.New(db),
		sessionMgr:  sessionMgr,
		errLog:      errLog,
		errPages:    errorsfeature.NewHandler(),
		auditLogger: auditLogger,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// LoginVM is the view model for the login page.
type LoginVM struct {
	viewdata.BaseVM
	Error     string
	LoginID   string
	ReturnURL string
}

// Routes returns a chi.Router with login routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.showLogin)
	r.Post("/", h.handleLogin)
	return r
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		http.Redirect(w, r, urlutil.SafeReturn(query.Get(r, "return"), "", "/admin"), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "", "", query.Get(r, "return"))
}

// handleLogin checks the IP throttle, then the per-login lockout, then the
// password. Every refusal renders the same form.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errLog.Log(r, "failed to parse form", err)
		h.errPages.BadRequest(w, r, "The form could not be read.")
		return
	}
	ctx := r.Context()
	loginID := normalize.Email(r.FormValue("login_id"))
	password := r.FormValue("password")
	returnURL := r.FormValue("return")

	res, err := h.opts.Limiter.Hit(ctx, ThrottleScope, network.GetClientIP(r))
	if err != nil {
		h.errLog.Log(r, "login throttle unavailable", err)
	}
	if !res.Allowed {
		metrics.LoginAttempts.WithLabelValues(resultThrottled).Inc()
		h.auditLogger.LoginThrottled(r, loginID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())+1))
		h.render(w, r, http.StatusTooManyRequests, "Too many login attempts from your network. Please wait and try again.", loginID, returnURL)
		return
	}

	if loginID == "" || password == "" {
		metrics.LoginAttempts.WithLabelValues(resultInvalid).Inc()
		h.render(w, r, http.StatusUnauthorized, "Enter your email and password.", loginID, returnURL)
		return
	}

	if locked, until := h.lockedOut(r, loginID); locked {
		metrics.LoginAttempts.WithLabelValues(resultLocked).Inc()
		h.auditLogger.LoginLockedOut(r, loginID)
		h.render(w, r, http.StatusTooManyRequests, lockoutMessage(until.Sub(h.now())), loginID, returnURL)
		return
	}

	user, err := h.userStore.GetByLoginID(ctx, loginID)
	if err != nil && !errors.Is(err, userstore.ErrNotFound) {
		metrics.LoginAttempts.WithLabelValues(resultError).Inc()
		h.errLog.Log(r, "database error during login lookup", err)
		h.render(w, r, http.StatusInternalServerError, "Service temporarily unavailable. Please try again.", loginID, returnURL)
		return
	}

	reason := ""
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		authutil.CheckPassword(password, dummyHash())
		reason = "unknown_user"
	case !authutil.CheckPassword(password, user.PasswordHash):
		reason = "wrong_password"
	case user.Status != models.UserActive:
		reason = "disabled"
	}
	if reason != "" {
		h.fail(w, r, loginID, reason, returnURL)
		return
	}

	if h.opts.Lockout != nil {
		if err := h.opts.Lockout.Clear(ctx, loginID); err != nil {
			h.errLog.Log(r, "failed to clear login failures", err)
		}
	}
	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Role); err != nil {
		metrics.LoginAttempts.WithLabelValues(resultError).Inc()
		h.errLog.Log(r, "failed to create session", err)
		h.errPages.InternalError(w, r)
		return
	}
	if err := h.userStore.SetLastLogin(ctx, user.ID, h.now()); err != nil {
		h.errLog.Log(r, "failed to record last login", err)
	}
	if authutil.NeedsRehash(user.PasswordHash) {
		if hash, err := authutil.HashPassword(password); err == nil {
			if err := h.userStore.UpdatePassword(ctx, user.ID, hash); err != nil {
				h.errLog.Log(r, "failed to upgrade password hash", err)
			}
		}
	}

	metrics.LoginAttempts.WithLabelValues(resultOK).Inc()
	h.auditLogger.LoginSuccess(r, user.ID, user.LoginID)
	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/admin"), http.StatusSeeOther)
}

// fail records a failed attempt. The attempt that starts a lockout is
// reported as a lockout.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, loginID, reason, returnURL string) {
	h.auditLogger.LoginFailed(r, loginID, reason)
	if h.opts.Lockout != nil {
		st, err := h.opts.Lockout.Fail(r.Context(), loginID)
		if err != nil {
			h.errLog.Log(r, "failed to record login failure", err)
		} else if !st.Allowed {
			metrics.LoginAttempts.WithLabelValues(resultLocked).Inc()
			h.auditLogger.LoginLockedOut(r, loginID)
			h.render(w, r, http.StatusTooManyRequests, lockoutMessage(st.LockedUntil.Sub(h.now())), loginID, returnURL)
			return
		}
	}
	result := resultInvalid
	msg := invalidCredentials
	if reason == "disabled" {
		result = resultDisabled
		msg = "This account is disabled."
	}
	metrics.LoginAttempts.WithLabelValues(result).Inc()
	h.render(w, r, http.StatusUnauthorized, msg, loginID, returnURL)
}

func (h *Handler) lockedOut(r *http.Request, loginID string) (bool, time.Time) {
	if h.opts.Lockout == nil {
		return false, time.Time{}
	}
	st, err := h.opts.Lockout.Check(r.Context(), loginID)
	if err != nil {
		h.errLog.Log(r, "failed to check login lockout", err)
		return false, time.Time{}
	}
	return !st.Allowed, st.LockedUntil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, msg, loginID, returnURL string) {
	vm := LoginVM{
		BaseVM:    viewdata.NewBaseVM(r, "Sign in", ""),
		Error:     msg,
		LoginID:   loginID,
		ReturnURL: returnURL,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "login/form", vm)
}

func lockoutMessage(remaining time.Duration) string {
	if remaining > time.Minute {
		return fmt.Sprintf("Too many failed login attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
	}
	return fmt.Sprintf("Too many failed login attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
}

// dummyHash is hashed on first use so unknown logins pay the same bcrypt cost.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := authutil.HashPassword(uuid.NewString())
	return hash
})

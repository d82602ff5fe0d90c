// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/network"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	All = "all" // MongoDB and zap
	DB  = "db"
	Log = "log"
	Off = "off"
)

// Config selects where each category goes.
type Config struct {
	Auth  string
	Admin string
}

// Logger writes audit events to the audit store and to zap.
// A nil Logger is a no-op so handlers under test can omit it.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryAuth:
		s = l.config.Auth
	case audit.CategoryAdmin:
		s = l.config.Admin
	}
	if s == "" {
		return All
	}
	return s
}

func (l *Logger) logToZap(e audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("action", e.Action),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	}
	if e.ActorID != nil {
		fields = append(fields, zap.String("actor_id", e.ActorID.Hex()))
	}
	if e.ActorLogin != "" {
		fields = append(fields, zap.String("actor_login", e.ActorLogin))
	}
	if e.TargetKind != "" {
		fields = append(fields, zap.String("target", e.TargetKind+":"+e.TargetID))
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	if e.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Write records e according to the category's configured destination.
// Storage failures are logged and never returned.
func (l *Logger) Write(ctx context.Context, e audit.Event) {
	if l == nil {
		return
	}
	dest := l.setting(e.Category)
	if dest == Off {
		return
	}
	if dest == All || dest == Log {
		l.logToZap(e)
	}
	if (dest == All || dest == DB) && l.store != nil {
		if err := l.store.Log(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit event", zap.Error(err), zap.String("action", e.Action))
		}
	}
}

func fromRequest(r *http.Request, category, action string) audit.Event {
	e := audit.Event{
		Category:  category,
		Action:    action,
		IP:        network.GetClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			e.ActorID = &oid
		}
		e.ActorLogin = u.LoginID
	}
	return e
}

// LoginSuccess logs a successful password login.
func (l *Logger) LoginSuccess(r *http.Request, userID primitive.ObjectID, loginID string) {
	e := fromRequest(r, audit.CategoryAuth, audit.ActionLoginSuccess)
	e.ActorID = &userID
	e.ActorLogin = loginID
	l.Write(r.Context(), e)
}

// LoginFailed logs a rejected login. reason is one of "unknown_user",
// "wrong_password" or "disabled".
func (l *Logger) LoginFailed(r *http.Request, loginID, reason string) {
	e := fromRequest(r, audit.CategoryAuth, audit.ActionLoginFailed)
	e.ActorLogin = loginID
	e.Success = false
	e.Reason = reason
	l.Write(r.Context(), e)
}

// LoginLockedOut logs an attempt against a locked login id.
func (l *Logger) LoginLockedOut(r *http.Request, loginID string) {
	e := fromRequest(r, audit.CategoryAuth, audit.ActionLoginLocked)
	e.ActorLogin = loginID
	e.Success = false
	e.Reason = "locked"
	l.Write(r.Context(), e)
}

// LoginThrottled logs a login refused because the client IP sent too many
// attempts.
func (l *Logger) LoginThrottled(r *http.Request, loginID string) {
	e := fromRequest(r, audit.CategoryAuth, audit.ActionLoginThrottle)
	e.ActorLogin = loginID
	e.Success = false
	e.Reason = "throttled"
	l.Write(r.Context(), e)
}

// Logout logs the current user signing out.
func (l *Logger) Logout(r *http.Request) {
	l.Write(r.Context(), fromRequest(r, audit.CategoryAuth, audit.ActionLogout))
}

// Admin logs an admin change to a target made by the current user.
func (l *Logger) Admin(r *http.Request, action, kind, id string, details map[string]string) {
	e := fromRequest(r, audit.CategoryAdmin, action)
	e.TargetKind = kind
	e.TargetID = id
	e.Details = details
	l.Write(r.Context(), e)
}

// Package auth keeps the signed-in back-office user in a gorilla session
// cookie and guards admin routes by role.
package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultSessionName = "strataimpact-session"

	keyAuthed    = "authed"
	keyUserID    = "uid"
	keyRole      = "role"
	keyIssuedAt  = "iat"
	minKeyLength = 32
)

// ErrWeakSessionKey is returned in production when the session key is short
// or looks like a placeholder.
var ErrWeakSessionKey = errors.New("session key must be at least 32 random characters in production")

// SessionManager owns the cookie store and the role middleware.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// UserFetcher loads the current state of a user on each request. It
// returns nil when the user no longer exists or is disabled, which ends
// the session.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// NewSessionManager builds a cookie-backed session manager. secure marks
// the cookie Secure and enforces a strong key.
func NewSessionManager(key, name, domain string, maxAge time.Duration, secure bool, log *zap.Logger) (*SessionManager, error) {
	weak := len(key) < minKeyLength || looksLikePlaceholder(key)
	if key == "" || (secure && weak) {
		return nil, ErrWeakSessionKey
	}
	if weak {
		log.Warn("session key is weak; use 32+ random characters in production", zap.Int("length", len(key)))
	}
	if name == "" {
		name = defaultSessionName
	}

	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name, log: log}, nil
}

// SetUserFetcher installs the fetcher used by LoadSessionUser.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// SessionName returns the cookie name.
func (sm *SessionManager) SessionName() string { return sm.name }

// SessionUser is the signed-in user as seen by handlers and templates.
type SessionUser struct {
	ID      string
	Name    string
	LoginID string
	Role    string
}

// UserID returns the user's ObjectID, or the zero ID when malformed.
func (u *SessionUser) UserID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// IsAdmin reports whether the user holds the admin role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && normalize.Role(u.Role) == "admin"
}

type ctxKey struct{}

// CurrentUser returns the signed-in user, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(ctxKey{}).(*SessionUser)
	return u, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
}

// WithTestUser puts u in the request context without a cookie.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// LoadSessionUser reads the session cookie and, when it carries a user the
// fetcher still accepts, puts that user in the request context.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			sm.logSessionError(r, err)
		}
		if authed, _ := sess.Values[keyAuthed].(bool); !authed {
			next.ServeHTTP(w, r)
			return
		}

		uid, _ := sess.Values[keyUserID].(string)
		if sm.fetcher == nil || uid == "" {
			next.ServeHTTP(w, r)
			return
		}
		u := sm.fetcher.FetchUser(r.Context(), uid)
		if u == nil {
			sm.log.Info("session ended: user missing or disabled", zap.String("user_id", uid))
			clear(sess.Values)
			_ = sess.Save(r, w)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

func (sm *SessionManager) logSessionError(r *http.Request, err error) {
	var scErr securecookie.Error
	if errors.As(err, &scErr) && scErr.IsDecode() {
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "expired"):
			sm.log.Debug("session cookie expired", zap.String("path", r.URL.Path))
		case strings.Contains(msg, "mac"), strings.Contains(msg, "hash"):
			sm.log.Warn("session cookie failed MAC check",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr))
		default:
			sm.log.Info("session cookie unreadable", zap.String("path", r.URL.Path), zap.Error(err))
		}
		return
	}
	sm.log.Warn("session store error", zap.String("path", r.URL.Path), zap.Error(err))
}

// RequireRole allows the request through only for a signed-in user holding
// one of the roles. Anonymous browsers go to /login with a return URL; a
// signed-in user without the role gets 403.
func (sm *SessionManager) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[normalize.Role(role)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				if strings.Contains(r.Header.Get("Accept"), "text/html") {
					http.Redirect(w, r, "/login?return="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !allowed[normalize.Role(u.Role)] {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CreateSession marks the response's session as signed in to userID.
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, role string) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sess, _ = sm.store.New(r, sm.name)
	}
	sess.Values[keyAuthed] = true
	sess.Values[keyUserID] = userID.Hex()
	sess.Values[keyRole] = role
	sess.Values[keyIssuedAt] = time.Now().Unix()
	return sess.Save(r, w)
}

// DestroySession signs the user out and expires the cookie.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return
	}
	clear(sess.Values)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

func looksLikePlaceholder(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range []string{"dev-only", "change-me", "changeme", "placeholder", "example", "insecure", "secret123", "password"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

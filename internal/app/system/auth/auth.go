// Package auth manages the admin session cookie and the request's current
// user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Session value keys.
const (
	userIDKey      = "user_id"
	isAuthKey      = "is_authenticated"
	auditAlertsKey = "audit_alerts"
	signedInAtKey  = "signed_in_at"
)

// SessionUser is the signed-in user, refreshed from the database on every
// request and injected into r.Context().
type SessionUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role"`
	Organization  string `json:"organization,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, "admin")
}

// UserFetcher loads the current state of a user. It returns nil when the
// user no longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager owns the cookie store. It is built once in bootstrap and
// passed to the handlers that need it.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager creates the cookie store. In production (secure=true)
// cookies are Secure with SameSite=None; for local http use secure=false.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide at least 32 random characters")
	}
	if name == "" {
		return nil, errors.New("session name is empty")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher wires the loader used by LoadSessionUser.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

// GetSession returns the request's session. A cookie that fails to decode
// (for example after a key rotation) yields a fresh session and no error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err == nil {
		return sess, nil
	}
	var scErr securecookie.Error
	if errors.As(err, &scErr) && scErr.IsDecode() {
		sm.log.Debug("discarding undecodable session cookie", zap.Error(err))
		return sess, nil
	}
	return nil, fmt.Errorf("load session: %w", err)
}

// SignIn stores userID in a fresh session and writes the cookie. Audit
// alerts start disabled.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	sess.Values[auditAlertsKey] = false
	sess.Values[signedInAtKey] = time.Now().Unix()
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// AuditAlertsEnabled reports the session's audit alert preference.
func (sm *SessionManager) AuditAlertsEnabled(r *http.Request) bool {
	sess, err := sm.GetSession(r)
	if err != nil {
		return false
	}
	on, _ := sess.Values[auditAlertsKey].(bool)
	return on
}

// SetAuditAlerts stores the session's audit alert preference.
func (sm *SessionManager) SetAuditAlerts(w http.ResponseWriter, r *http.Request, enabled bool) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	sess.Values[auditAlertsKey] = enabled
	return sess.Save(r, w)
}

// LoadSessionUser injects the signed-in user into the request context.
// Users that no longer exist are treated as signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err != nil || sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
			next.ServeHTTP(w, r)
			return
		}
		userID, _ := sess.Values[userIDKey].(string)
		if u := sm.fetcher.FetchUser(r.Context(), userID); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 when no user is in context.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 when no user is in context and 403 when the user
// holds none of the allowed roles. Roles compare case-insensitively.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				respond.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the user injected by LoadSessionUser.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u as LoadSessionUser would. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

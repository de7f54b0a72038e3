// Package auth manages the signed session cookie, loads the signed-in user
// into the request context, and guards routes by sign-in and role.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	flashKey  = "_flash"

	// ForbiddenFallback is where signed-in HTML users without the needed
	// role are sent.
	ForbiddenFallback = "/dashboard"
)

// SessionUser is the signed-in user carried in the request context.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// UserFetcher reloads a user on every request so role changes and
// deactivation take effect immediately. It returns nil when the user no
// longer exists or may not sign in.
type UserFetcher interface {
	FetchUser(ctx context.Context, id string) *SessionUser
}

// SessionManager owns the cookie store.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the cookie store. secure=true marks cookies
// Secure with SameSite=None; local http development uses Lax.
func NewSessionManager(key, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if key == "" {
		return nil, errors.New("session key is empty; provide 32+ random chars")
	}
	if name == "" {
		return nil, errors.New("session name is empty")
	}
	if len(key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// SetUserFetcher installs the per-request user loader.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// GetSession returns the session. On a decode failure (rotated key,
// tampered cookie) it still returns a usable fresh session with the error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		fresh := sessions.NewSession(sm.store, sm.name)
		opts := *sm.store.Options
		fresh.Options = &opts
		fresh.IsNew = true
		return fresh, err
	}
	return sess, nil
}

// SignIn marks the session authenticated for userID.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut expires the cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Warn("session decode failed during logout", zap.Error(err))
	}
	delete(sess.Values, isAuthKey)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser puts the signed-in user into the context. Without a
// fetcher no user is loaded. A user the fetcher rejects is signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err != nil || sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}
		isAuth, _ := sess.Values[isAuthKey].(bool)
		id, _ := sess.Values[userIDKey].(string)
		if !isAuth || id == "" {
			next.ServeHTTP(w, r)
			return
		}

		u := sm.fetcher.FetchUser(r.Context(), id)
		if u == nil {
			if err := sm.SignOut(w, r); err != nil {
				sm.log.Warn("clear stale session", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn rejects anonymous requests:
//   - HTMX: HX-Redirect to /login?return=...
//   - HTML: 303 to /login?return=...
//   - API:  401 JSON envelope
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

// RequireRole allows only the listed roles (case-insensitive). Anonymous
// callers are treated as in RequireSignedIn; signed-in callers with another
// role go to the dashboard (HTML) or get a 403 envelope (API).
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				unauthorized(w, r)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; has {
				next.ServeHTTP(w, r)
				return
			}

			switch {
			case r.Header.Get("HX-Request") == "true":
				w.Header().Set("HX-Redirect", ForbiddenFallback)
				w.WriteHeader(http.StatusForbidden)
			case wantsHTML(r):
				http.Redirect(w, r, ForbiddenFallback, http.StatusSeeOther)
			default:
				jsonresp.Fail(w, r, http.StatusForbidden, "FORBIDDEN", "You do not have permission to do that.")
			}
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	dest := "/login?return=" + url.QueryEscape(r.URL.RequestURI())
	switch {
	case r.Header.Get("HX-Request") == "true":
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
	case wantsHTML(r):
		http.Redirect(w, r, dest, http.StatusSeeOther)
	default:
		jsonresp.Fail(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Please sign in.")
	}
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u as the signed-in user. Handler tests use it in
// place of a real cookie.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// wantsHTML is true for browser navigation. Anything under /api/ is JSON.
func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func TestRequireSignedIn_NoUser_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	}))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "/login") {
		t.Errorf("expected redirect to /login, got %q", location)
	}
}

func TestRequireSignedIn_NoUser_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("Accept", "text/html, application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	var env struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("expected JSON envelope, got %q", rec.Body.String())
	}
	if env.Success || env.Code != "UNAUTHORIZED" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestRequireSignedIn_NoUser_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	hxRedirect := rec.Header().Get("HX-Redirect")
	if !strings.HasPrefix(hxRedirect, "/login") {
		t.Errorf("expected HX-Redirect to /login, got %q", hxRedirect)
	}
}

func TestRequireRole_NoUser_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "/login") {
		t.Errorf("expected redirect to /login, got %q", location)
	}
}

func TestRequireRole_WrongRole_RedirectsToDashboard(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Create a request with a member user in context
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Accept", "text/html")

	// Inject a user with "member" role into context
	req = withTestUser(req, "member")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	location := rec.Header().Get("Location")
	if location != "/dashboard" {
		t.Errorf("expected redirect to /dashboard, got %q", location)
	}
}

func TestRequireRole_WrongRole_API_Returns403(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin", nil)
	req.Header.Set("Accept", "application/json")
	req = withTestUser(req, "member")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestRequireRole_CorrectRole_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)

	called := false
	handler := sm.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	req = withTestUser(req, "admin")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireRole("ADMIN", "SUPER_ADMIN")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		role     string
		expected int
	}{
		{"ADMIN", http.StatusOK},
		{"SUPER_ADMIN", http.StatusOK},
		{"EDITOR", http.StatusSeeOther}, // redirect to dashboard
		{"MEMBER", http.StatusSeeOther}, // redirect to dashboard
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/settings", nil)
			req.Header.Set("Accept", "text/html")
			req = withTestUser(req, tc.role)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Errorf("role %q: expected status %d, got %d", tc.role, tc.expected, rec.Code)
			}
		})
	}
}

func TestRequireRole_CaseInsensitive(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Test with uppercase role
	req := httptest.NewRequest("GET", "/admin", nil)
	req = withTestUser(req, "ADMIN")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d for uppercase role, got %d", http.StatusOK, rec.Code)
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	user, ok := auth.CurrentUser(req)

	if ok {
		t.Error("expected ok to be false when no user in context")
	}
	if user != nil {
		t.Error("expected user to be nil when no user in context")
	}
}

func TestCurrentUser_WithUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = withTestUser(req, "admin")

	user, ok := auth.CurrentUser(req)

	if !ok {
		t.Error("expected ok to be true when user in context")
	}
	if user == nil {
		t.Fatal("expected user to not be nil")
	}
	if user.Role != "admin" {
		t.Errorf("expected role 'admin', got %q", user.Role)
	}
}

// withTestUser injects a SessionUser into the request context for testing.
// This simulates what LoadSessionUser middleware does.
func withTestUser(r *http.Request, role string) *http.Request {
	user := &auth.SessionUser{
		ID:    "507f1f77bcf86cd799439011", // Valid ObjectID hex
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	}
	return auth.WithTestUser(r, user)
}

type stubFetcher struct {
	users map[string]*auth.SessionUser
}

func (f stubFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser {
	return f.users[id]
}

// signInCookie runs SignIn against a recorder and returns the issued cookies.
func signInCookie(t *testing.T, sm *auth.SessionManager, userID string) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), userID); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return rec.Result().Cookies()
}

func TestLoadSessionUser_ReloadsUser(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(stubFetcher{users: map[string]*auth.SessionUser{
		"u1": {ID: "u1", Name: "Ana", Role: "EDITOR"},
	}})

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range signInCookie(t, sm, "u1") {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Name != "Ana" || got.Role != "EDITOR" {
		t.Errorf("expected Ana/EDITOR in context, got %+v", got)
	}
}

func TestLoadSessionUser_RejectedUserSignedOut(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(stubFetcher{users: map[string]*auth.SessionUser{}})

	called := false
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("deactivated user should not be in context")
		}
	}))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range signInCookie(t, sm, "gone") {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected next handler to run")
	}
	expired := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("expected session cookie to be expired")
	}
}

func TestFlasher_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	f := sm.Flasher()
	f.Success("User approved.")
	f.Error("Approval email could not be sent.")

	rec := httptest.NewRecorder()
	if err := f.Save(rec, httptest.NewRequest("POST", "/admin/users/1/approve", nil)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin/users", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	msgs := sm.TakeFlashes(httptest.NewRecorder(), req)

	if len(msgs) != 2 {
		t.Fatalf("expected 2 flashes, got %d", len(msgs))
	}
	if msgs[0].Level != "success" || msgs[0].Text != "User approved." {
		t.Errorf("unexpected first flash %+v", msgs[0])
	}
	if msgs[1].Level != "error" {
		t.Errorf("unexpected second flash %+v", msgs[1])
	}
}

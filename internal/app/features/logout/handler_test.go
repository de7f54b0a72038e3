package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/councilhub/internal/app/features/logout"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *logout.Handler {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sm, nil, logger)
}

func expiredCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestServeLogout_RedirectsAndClearsCookie(t *testing.T) {
	h := newTestHandler(t)

	req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/logout", nil), testutil.MemberUser())
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	testutil.AssertRedirect(t, rec, "/login")
	if !expiredCookie(rec, "test-session") {
		t.Error("expected an expiring session cookie")
	}
}

func TestServeLogout_HTMX(t *testing.T) {
	h := newTestHandler(t)

	req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/logout", nil), testutil.MemberUser())
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", got)
	}
}

func TestRoutes_RequiresSignIn(t *testing.T) {
	h := newTestHandler(t)
	router := logout.Routes(h, h.SessionMgr)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?return=%2F" {
		t.Errorf("Location = %q", loc)
	}
}

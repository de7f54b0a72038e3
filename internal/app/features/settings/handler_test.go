package settings_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	"github.com/dalemusser/councilhub/internal/app/features/settings"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/councilhub/internal/testutil"
	"go.uber.org/zap"
)

type fixedKey string

func (k fixedKey) SiteKey(context.Context) string { return string(k) }

type adminView struct {
	Settings models.SiteSettings     `json:"settings"`
	Problems []settingsstore.Problem `json:"problems"`
}

func newTestHandler(t *testing.T) (*settings.Handler, *auth.SessionManager) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return settings.NewHandler(db, fixedKey("site-key-123"), sm, uierrors.NewErrorLogger(logger), nil, logger), sm
}

func asAdmin(r *http.Request) *http.Request { return testutil.WithUser(r, testutil.AdminUser()) }

func validSettings() map[string]any {
	return map[string]any{
		"organization_name": "  Lakeside Council ",
		"contact_email":     "Office@Lakeside.org",
		"timezone":          "UTC",
		"registration_open": false,
		"recaptcha_enabled": true,
		"event_categories":  []string{"Meeting", " meeting", "Clinic"},
		"calendar_cell_max": 4,
		"footer_html":       `<b>Hi</b><script>x()</script>`,
	}
}

func TestGet_ReportsProblems(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := h.Site.Set(ctx, settingsstore.KeyCalendarCellMax, "lots", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Get(rec, asAdmin(testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/settings", nil)))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var v adminView
	testutil.DecodeEnvelope(t, rec, &v)
	if v.Settings.CalendarCellMax != 3 {
		t.Errorf("cell max = %d, want default 3", v.Settings.CalendarCellMax)
	}
	if len(v.Problems) != 1 || v.Problems[0].Key != settingsstore.KeyCalendarCellMax {
		t.Errorf("problems = %+v", v.Problems)
	}
}

func TestPut_CleansAndSaves(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Put(rec, asAdmin(testutil.NewJSONRequest(t, http.MethodPut, "/api/admin/settings", validSettings())))
	testutil.AssertStatus(t, rec, http.StatusOK)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	st, problems, err := h.Site.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("problems after save = %+v", problems)
	}
	if st.OrganizationName != "Lakeside Council" || st.ContactEmail != "office@lakeside.org" {
		t.Errorf("name/email = %q / %q", st.OrganizationName, st.ContactEmail)
	}
	if len(st.EventCategories) != 2 {
		t.Errorf("categories = %v, want deduped pair", st.EventCategories)
	}
	if st.FooterHTML != "<b>Hi</b>" {
		t.Errorf("footer = %q", st.FooterHTML)
	}
	if st.RegistrationOpen || !st.RecaptchaEnabled || st.CalendarCellMax != 4 {
		t.Errorf("flags = %+v", st)
	}
}

func TestPut_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"missing name", "organization_name", "  "},
		{"bad email", "contact_email", "not-an-email"},
		{"unknown zone", "timezone", "Mars/Olympus"},
		{"cell max too big", "calendar_cell_max", 11},
		{"no categories", "event_categories", []string{" ", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validSettings()
			body[tt.key] = tt.value

			rec := httptest.NewRecorder()
			h.Put(rec, asAdmin(testutil.NewJSONRequest(t, http.MethodPut, "/api/admin/settings", body)))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)

			env := testutil.DecodeEnvelope(t, rec, nil)
			if _, ok := env.Fields[tt.key]; !ok {
				t.Errorf("fields = %v, want %s", env.Fields, tt.key)
			}
		})
	}
}

func TestPublic(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var v map[string]any
	rec := httptest.NewRecorder()
	h.Public(rec, httptest.NewRequest(http.MethodGet, "/api/settings/public", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeEnvelope(t, rec, &v)
	if v["organization_name"] != models.DefaultSiteName {
		t.Errorf("organization_name = %v", v["organization_name"])
	}
	if _, ok := v["recaptcha_site_key"]; ok {
		t.Error("site key exposed while reCAPTCHA is disabled")
	}

	if err := h.Site.Set(ctx, settingsstore.KeyRecaptchaEnabled, "true", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v = nil
	rec = httptest.NewRecorder()
	h.Public(rec, httptest.NewRequest(http.MethodGet, "/api/settings/public", nil))
	testutil.DecodeEnvelope(t, rec, &v)
	if v["recaptcha_site_key"] != "site-key-123" {
		t.Errorf("recaptcha_site_key = %v", v["recaptcha_site_key"])
	}
}

func TestHandleSettings_FormSaves(t *testing.T) {
	h, _ := newTestHandler(t)

	form := "organization_name=Hill+Council&timezone=UTC&event_categories=Meeting,+Social&calendar_cell_max=2&registration_open=1"
	rec := httptest.NewRecorder()
	h.HandleSettings(rec, asAdmin(testutil.NewFormRequest(http.MethodPost, "/admin/settings", form)))
	testutil.AssertRedirect(t, rec, "/admin/settings")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := h.Site.Get(ctx)
	if st.OrganizationName != "Hill Council" || st.CalendarCellMax != 2 || !st.RegistrationOpen || st.RecaptchaEnabled {
		t.Errorf("saved = %+v", st)
	}
	if len(st.EventCategories) != 2 || st.EventCategories[1] != "Social" {
		t.Errorf("categories = %v", st.EventCategories)
	}
}

func TestRoutes_RequireAdmin(t *testing.T) {
	h, sm := newTestHandler(t)
	r := settings.APIRoutes(h, sm)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodGet, "/", nil), testutil.EditorUser()))
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

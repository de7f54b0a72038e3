package integrations_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/councilhub/internal/app/features/integrations"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	sysint "github.com/dalemusser/councilhub/internal/app/system/integrations"
	"github.com/dalemusser/councilhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name       string
	connected  bool
	account    string
	configured json.RawMessage
	testErr    error
	lastTest   sysint.TestRequest
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Status(context.Context) (sysint.Status, error) {
	return sysint.Status{Provider: p.name, Label: strings.ToUpper(p.name), Connected: p.connected, Account: p.account}, nil
}

func (p *fakeProvider) Configure(ctx context.Context, raw json.RawMessage, _ primitive.ObjectID) (sysint.Status, error) {
	var in struct {
		SiteKey string `json:"site_key"`
	}
	if err := json.Unmarshal(raw, &in); err != nil || in.SiteKey == "" {
		return sysint.Status{}, apperr.Validation("Site key is required.", map[string]string{"site_key": "required"})
	}
	p.configured = raw
	p.connected, p.account = true, in.SiteKey
	return p.Status(ctx)
}

func (p *fakeProvider) Disconnect(context.Context, primitive.ObjectID) error {
	p.connected, p.account = false, ""
	return nil
}

func (p *fakeProvider) Test(_ context.Context, req sysint.TestRequest) (string, error) {
	p.lastTest = req
	if !p.connected {
		return "", sysint.ErrNotConfigured
	}
	if p.testErr != nil {
		return "", p.testErr
	}
	return "all good", nil
}

type fakeFlow struct {
	beginErr    error
	completeErr error
	returnURL   string
	gotState    string
	gotCode     string
}

func (f *fakeFlow) Begin(_ context.Context, _ primitive.ObjectID, _ string) (string, error) {
	if f.beginErr != nil {
		return "", f.beginErr
	}
	return "https://accounts.google.com/o/oauth2/auth?state=abc", nil
}

func (f *fakeFlow) Complete(_ context.Context, _ primitive.ObjectID, state, code string) (string, error) {
	f.gotState, f.gotCode = state, code
	if f.completeErr != nil {
		return "", f.completeErr
	}
	if f.returnURL != "" {
		return f.returnURL, nil
	}
	return "/admin/integrations", nil
}

type env struct {
	h     *integrations.Handler
	sm    *auth.SessionManager
	capt  *fakeProvider
	gmail *fakeFlow
}

func setup(t *testing.T) env {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	capt := &fakeProvider{name: "recaptcha"}
	flow := &fakeFlow{}
	h := &integrations.Handler{
		Providers:  sysint.NewManager(capt, &fakeProvider{name: "gcs"}),
		Gmail:      flow,
		SessionMgr: sm,
		Log:        logger,
	}
	return env{h: h, sm: sm, capt: capt, gmail: flow}
}

func adminReq(t *testing.T, method, target string, body any, provider string) *http.Request {
	req := testutil.WithUser(testutil.NewJSONRequest(t, method, target, body), testutil.AdminUser())
	if provider != "" {
		req = testutil.WithChiURLParam(req, "provider", provider)
	}
	return req
}

func TestList(t *testing.T) {
	e := setup(t)
	rec := httptest.NewRecorder()
	e.h.List(rec, adminReq(t, http.MethodGet, "/api/admin/integrations", nil, ""))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var sts []sysint.Status
	testutil.DecodeEnvelope(t, rec, &sts)
	if len(sts) != 2 || sts[0].Provider != "gcs" || sts[1].Provider != "recaptcha" {
		t.Errorf("statuses = %+v", sts)
	}
}

func TestConfigureTestDisconnect(t *testing.T) {
	e := setup(t)

	rec := httptest.NewRecorder()
	e.h.Test(rec, adminReq(t, http.MethodPost, "/api/admin/integrations/recaptcha/test", nil, "recaptcha"))
	testutil.AssertStatus(t, rec, http.StatusConflict)

	rec = httptest.NewRecorder()
	e.h.Configure(rec, adminReq(t, http.MethodPost, "/api/admin/integrations/recaptcha", map[string]string{"site_key": "k1", "secret": "s1"}, "recaptcha"))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var st sysint.Status
	testutil.DecodeEnvelope(t, rec, &st)
	if !st.Connected || st.Account != "k1" {
		t.Errorf("status after configure = %+v", st)
	}

	rec = httptest.NewRecorder()
	e.h.Test(rec, adminReq(t, http.MethodPost, "/api/admin/integrations/recaptcha/test", nil, "recaptcha"))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if e.capt.lastTest.ActorEmail != testutil.AdminUser().Email {
		t.Errorf("test actor email = %q", e.capt.lastTest.ActorEmail)
	}

	rec = httptest.NewRecorder()
	e.h.Delete(rec, adminReq(t, http.MethodDelete, "/api/admin/integrations/recaptcha", nil, "recaptcha"))
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeEnvelope(t, rec, &st)
	if st.Connected {
		t.Error("still connected after delete")
	}
}

func TestErrors(t *testing.T) {
	e := setup(t)
	e.capt.connected = true
	e.capt.testErr = apperr.Collaborator("reCAPTCHA could not be reached.", errors.New("dial tcp"))

	tests := []struct {
		name   string
		call   func(http.ResponseWriter, *http.Request)
		body   any
		prov   string
		status int
	}{
		{"unknown provider", e.h.Get, nil, "dropbox", http.StatusNotFound},
		{"invalid config", e.h.Configure, map[string]string{"secret": "s"}, "recaptcha", http.StatusBadRequest},
		{"collaborator failure", e.h.Test, nil, "recaptcha", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.call(rec, adminReq(t, http.MethodPost, "/api/admin/integrations/"+tt.prov, tt.body, tt.prov))
			testutil.AssertStatus(t, rec, tt.status)
		})
	}
}

func TestHandleConfigure_Form(t *testing.T) {
	e := setup(t)
	req := testutil.NewFormRequest(http.MethodPost, "/admin/integrations/recaptcha", "site_key=+form-key+&secret=s&extra=ignored")
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AdminUser()), "provider", "recaptcha")

	rec := httptest.NewRecorder()
	e.h.HandleConfigure(rec, req)
	testutil.AssertRedirect(t, rec, "/admin/integrations")

	var got map[string]string
	if err := json.Unmarshal(e.capt.configured, &got); err != nil {
		t.Fatalf("configured payload: %v", err)
	}
	if got["site_key"] != "form-key" || got["secret"] != "s" || len(got) != 2 {
		t.Errorf("payload = %v", got)
	}
}

func TestGmailConnectAndCallback(t *testing.T) {
	e := setup(t)

	rec := httptest.NewRecorder()
	e.h.Connect(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/admin/integrations/gmail/connect", nil), testutil.AdminUser()))
	if rec.Code != http.StatusFound || !strings.HasPrefix(rec.Header().Get("Location"), "https://accounts.google.com/") {
		t.Errorf("connect = %d %s", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	e.h.Callback(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/admin/integrations/gmail/callback?state=st&code=c0de", nil), testutil.AdminUser()))
	testutil.AssertRedirect(t, rec, "/admin/integrations")
	if e.gmail.gotState != "st" || e.gmail.gotCode != "c0de" {
		t.Errorf("complete got state=%q code=%q", e.gmail.gotState, e.gmail.gotCode)
	}
}

func TestGmailCallback_OnlyFollowsLocalReturn(t *testing.T) {
	tests := []struct {
		ret  string
		want string
	}{
		{"/admin/settings", "/admin/settings"},
		{"//evil.example", "/admin/integrations"},
		{"/\\evil.example", "/admin/integrations"},
		{"https://evil.example/", "/admin/integrations"},
		{"/logout", "/admin/integrations"},
	}
	for _, tt := range tests {
		t.Run(tt.ret, func(t *testing.T) {
			e := setup(t)
			e.gmail.returnURL = tt.ret
			rec := httptest.NewRecorder()
			e.h.Callback(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/admin/integrations/gmail/callback?state=st&code=c", nil), testutil.AdminUser()))
			testutil.AssertRedirect(t, rec, tt.want)
		})
	}
}

func TestGmailConnect_Unavailable(t *testing.T) {
	e := setup(t)
	e.gmail.beginErr = sysint.ErrOAuthUnavailable

	rec := httptest.NewRecorder()
	e.h.Connect(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/admin/integrations/gmail/connect", nil), testutil.AdminUser()))
	testutil.AssertRedirect(t, rec, "/admin/integrations")
}

func TestRoutes_RequireAdmin(t *testing.T) {
	e := setup(t)
	r := integrations.APIRoutes(e.h, e.sm)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodGet, "/", nil), testutil.EditorUser()))
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}

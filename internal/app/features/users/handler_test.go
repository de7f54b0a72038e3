package users_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	"github.com/dalemusser/councilhub/internal/app/features/users"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/mailer"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/councilhub/internal/testutil"
	"go.uber.org/zap"
)

type captureMail struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (c *captureMail) Send(_ context.Context, e mailer.Email) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, e)
	return nil
}

type env struct {
	h     *users.Handler
	sm    *auth.SessionManager
	mail  *captureMail
	f     *testutil.Fixtures
	admin models.User
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	mail := &captureMail{}
	exec := lifecycle.NewExecutor(userstore.New(db), mail, nil, nil, settingsstore.New(db, logger), "https://council.test", logger)
	h := users.NewHandler(db, exec, sm, uierrors.NewErrorLogger(logger), logger)

	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := f.CreateUser(ctx, "Ada Admin", "ada@example.com", models.RoleAdmin, testutil.StateActive)
	return &env{h: h, sm: sm, mail: mail, f: f, admin: admin}
}

func (e *env) as(r *http.Request) *http.Request {
	return testutil.WithUser(r, testutil.TestUser{ID: e.admin.ID.Hex(), Name: e.admin.Name, Email: e.admin.Email, Role: e.admin.Role})
}

func (e *env) act(t *testing.T, id, action string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/users/"+id+"/"+action, body)
	req = testutil.WithChiURLParam(e.as(req), "id", id)
	req = testutil.WithChiURLParam(req, "action", action)
	rec := httptest.NewRecorder()
	e.h.Act(rec, req)
	return rec
}

func TestList_GroupsAndCounts(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.f.CreateUser(ctx, "Pending Pat", "pat@example.com", models.RoleMember, testutil.StatePending)
	e.f.CreateUser(ctx, "Legacy Lee", "lee@example.com", models.RoleMember, testutil.StateLegacy)
	e.f.CreateUser(ctx, "New Nia", "nia@example.com", models.RoleMember, testutil.StateUnverified)

	rec := httptest.NewRecorder()
	e.h.List(rec, e.as(testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/users", nil)))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var data struct {
		Users []struct {
			Email   string   `json:"email"`
			Bucket  string   `json:"bucket"`
			Actions []string `json:"actions"`
		} `json:"users"`
		Counts map[string]int64 `json:"counts"`
	}
	testutil.DecodeEnvelope(t, rec, &data)

	if len(data.Users) != 4 {
		t.Fatalf("users = %d, want 4", len(data.Users))
	}
	for _, b := range []lifecycle.Bucket{lifecycle.Active, lifecycle.PendingApproval, lifecycle.Legacy, lifecycle.Unverified} {
		if data.Counts[string(b)] != 1 {
			t.Errorf("counts[%s] = %d, want 1", b, data.Counts[string(b)])
		}
	}
	for _, u := range data.Users {
		if u.Email == e.admin.Email {
			for _, a := range u.Actions {
				if a == "toggle_active" || a == "delete" {
					t.Errorf("own row offers %q", a)
				}
			}
		}
	}
}

func TestList_BucketFilter(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.f.CreateUser(ctx, "Pending Pat", "pat@example.com", models.RoleMember, testutil.StatePending)

	rec := httptest.NewRecorder()
	e.h.List(rec, e.as(testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/users?bucket=pending_approval", nil)))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var data struct {
		Users []struct {
			Email string `json:"email"`
		} `json:"users"`
	}
	testutil.DecodeEnvelope(t, rec, &data)
	if len(data.Users) != 1 || data.Users[0].Email != "pat@example.com" {
		t.Errorf("users = %+v", data.Users)
	}

	rec = httptest.NewRecorder()
	e.h.List(rec, e.as(testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/users?bucket=nope", nil)))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestAct_Approve(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.f.CreateUser(ctx, "Pending Pat", "pat@example.com", models.RoleMember, testutil.StatePending)

	rec := e.act(t, u.ID.Hex(), "approve", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var data struct {
		User struct {
			Bucket string `json:"bucket"`
		} `json:"user"`
	}
	resp := testutil.DecodeEnvelope(t, rec, &data)
	if data.User.Bucket != string(lifecycle.Active) {
		t.Errorf("bucket = %q, want active", data.User.Bucket)
	}
	if len(resp.Messages) == 0 {
		t.Error("expected a success message")
	}

	got, err := e.h.Users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Approved || got.ApprovedBy == nil || *got.ApprovedBy != e.admin.ID {
		t.Errorf("approved = %v by %v", got.Approved, got.ApprovedBy)
	}
	if len(e.mail.sent) != 1 || e.mail.sent[0].To != "pat@example.com" {
		t.Errorf("mail = %+v", e.mail.sent)
	}
}

func TestAct_Refusals(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	active := e.f.CreateUser(ctx, "Active Al", "al@example.com", models.RoleMember, testutil.StateActive)

	tests := []struct {
		name   string
		id     string
		action string
		status int
	}{
		{"self deactivate", e.admin.ID.Hex(), "toggle_active", http.StatusForbidden},
		{"approve active user", active.ID.Hex(), "approve", http.StatusConflict},
		{"unknown action", active.ID.Hex(), "promote", http.StatusNotFound},
		{"edit via post", active.ID.Hex(), "edit", http.StatusNotFound},
		{"bad id", "zzz", "approve", http.StatusBadRequest},
		{"missing user", "507f1f77bcf86cd799439011", "approve", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.act(t, tt.id, tt.action, nil)
			testutil.AssertStatus(t, rec, tt.status)
		})
	}
}

func TestAct_RejectWithReason(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.f.CreateUser(ctx, "Pending Pat", "pat@example.com", models.RoleMember, testutil.StatePending)

	rec := e.act(t, u.ID.Hex(), "reject", map[string]string{"reason": "not a council member"})
	testutil.AssertStatus(t, rec, http.StatusOK)

	if _, err := e.h.Users.GetByID(ctx, u.ID); err == nil {
		t.Error("rejected user should be removed")
	}
	if len(e.mail.sent) != 1 || !strings.Contains(e.mail.sent[0].TextBody, "not a council member") {
		t.Errorf("rejection mail = %+v", e.mail.sent)
	}
}

func TestDelete(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.f.CreateUser(ctx, "Active Al", "al@example.com", models.RoleMember, testutil.StateActive)

	req := testutil.NewJSONRequest(t, http.MethodDelete, "/api/admin/users/"+u.ID.Hex(), nil)
	req = testutil.WithChiURLParam(e.as(req), "id", u.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.Delete(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	if n, _ := e.h.Users.Count(ctx); n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
}

func TestPatch_RoleRules(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.f.CreateUser(ctx, "Active Al", "al@example.com", models.RoleMember, testutil.StateActive)

	patch := func(body map[string]string) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, http.MethodPatch, "/api/admin/users/"+u.ID.Hex(), body)
		req = testutil.WithChiURLParam(e.as(req), "id", u.ID.Hex())
		rec := httptest.NewRecorder()
		e.h.Patch(rec, req)
		return rec
	}

	rec := patch(map[string]string{"role": models.RoleSuperAdmin})
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = patch(map[string]string{"role": models.RoleEditor, "name": "Al Editor"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	got, _ := e.h.Users.GetByID(ctx, u.ID)
	if got.Role != models.RoleEditor || got.Name != "Al Editor" {
		t.Errorf("user = %s / %s", got.Role, got.Name)
	}
}

func TestMigrateLegacy(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.f.CreateUser(ctx, "Legacy One", "one@example.com", models.RoleMember, testutil.StateLegacy)
	e.f.CreateUser(ctx, "Legacy Two", "two@example.com", models.RoleMember, testutil.StateLegacy)

	rec := httptest.NewRecorder()
	e.h.MigrateLegacy(rec, e.as(testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/users/migrate-legacy", nil)))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var res lifecycle.MigrateResult
	testutil.DecodeEnvelope(t, rec, &res)
	if res.MigratedCount != 2 || len(res.Failures) != 0 {
		t.Errorf("result = %+v", res)
	}
	counts, err := e.h.Users.CountByBucket(ctx)
	if err != nil {
		t.Fatalf("CountByBucket: %v", err)
	}
	if counts[lifecycle.Legacy] != 0 {
		t.Errorf("legacy left = %d", counts[lifecycle.Legacy])
	}
}

func TestHandleAction_RedirectsWithFlash(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.f.CreateUser(ctx, "Pending Pat", "pat@example.com", models.RoleMember, testutil.StatePending)

	req := testutil.NewFormRequest(http.MethodPost, "/admin/users/"+u.ID.Hex()+"/approve", "")
	req = testutil.WithChiURLParam(e.as(req), "id", u.ID.Hex())
	req = testutil.WithChiURLParam(req, "action", "approve")
	rec := httptest.NewRecorder()
	e.h.HandleAction(rec, req)

	testutil.AssertRedirect(t, rec, "/admin/users")
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected the flash to be saved in the session cookie")
	}
	got, _ := e.h.Users.GetByID(ctx, u.ID)
	if !got.Approved {
		t.Error("user not approved")
	}
}

func TestRoutes_RequireAdmin(t *testing.T) {
	e := setup(t)
	r := users.APIRoutes(e.h, e.sm)

	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodGet, "/", nil), testutil.EditorUser())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestAPIRoutes_RefuseCrossSiteFormPost(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.f.CreateUser(ctx, "Pending Pat", "pat@example.com", models.RoleMember, testutil.StatePending)
	r := jsonresp.RequireAPIClient(users.APIRoutes(e.h, e.sm))

	for _, path := range []string{"/" + u.ID.Hex() + "/approve", "/migrate-legacy"} {
		req := e.as(testutil.NewFormRequest(http.MethodPost, path, ""))
		req.Header.Set("Origin", "https://elsewhere.example")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		testutil.AssertStatus(t, rec, http.StatusUnsupportedMediaType)
	}

	got, err := e.h.Users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Approved {
		t.Error("form post approved the user")
	}

	req := e.as(testutil.NewJSONRequest(t, http.MethodPost, "/"+u.ID.Hex()+"/approve", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestAct_AdminCannotTouchSuperAdmin(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	super := e.f.CreateUser(ctx, "Root", "root@example.com", models.RoleSuperAdmin, testutil.StateActive)

	rec := e.act(t, super.ID.Hex(), "toggle_active", nil)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	req := testutil.NewJSONRequest(t, http.MethodPatch, "/api/admin/users/"+super.ID.Hex(), map[string]string{"role": models.RoleMember})
	req = testutil.WithChiURLParam(e.as(req), "id", super.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.Patch(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	req = testutil.NewJSONRequest(t, http.MethodDelete, "/api/admin/users/"+super.ID.Hex(), nil)
	req = testutil.WithChiURLParam(e.as(req), "id", super.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.Delete(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	got, err := e.h.Users.GetByID(ctx, super.ID)
	if err != nil {
		t.Fatalf("super admin removed: %v", err)
	}
	if !got.Active || got.Role != models.RoleSuperAdmin {
		t.Errorf("super admin changed: active=%v role=%s", got.Active, got.Role)
	}

	rec = httptest.NewRecorder()
	e.h.List(rec, e.as(testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/users", nil)))
	var data struct {
		Users []struct {
			Email   string   `json:"email"`
			Actions []string `json:"actions"`
		} `json:"users"`
	}
	testutil.DecodeEnvelope(t, rec, &data)
	for _, row := range data.Users {
		if row.Email == "root@example.com" && len(row.Actions) != 0 {
			t.Errorf("super admin row offers %v", row.Actions)
		}
	}
}

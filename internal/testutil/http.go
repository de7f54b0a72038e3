package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser is the signed-in identity injected into handler tests.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// OID returns the user's ID as an ObjectID.
func (u TestUser) OID() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(u.ID)
	return id
}

func userWithRole(role, name, email string) TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: name, Email: email, Role: role}
}

func SuperAdminUser() TestUser {
	return userWithRole(models.RoleSuperAdmin, "Test Super", "super@test.com")
}
func AdminUser() TestUser  { return userWithRole(models.RoleAdmin, "Test Admin", "admin@test.com") }
func EditorUser() TestUser { return userWithRole(models.RoleEditor, "Test Editor", "editor@test.com") }
func MemberUser() TestUser { return userWithRole(models.RoleMember, "Test Member", "member@test.com") }

// WithUser injects user into the request context, bypassing the session.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// WithChiURLParam adds a chi URL parameter to the request context. Calling
// it again on the same request adds to the existing route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// NewJSONRequest builds an API request with a JSON body (or none when body is nil).
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

// NewFormRequest builds a browser form post.
func NewFormRequest(method, target, form string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

// Envelope mirrors the API response body for decoding in tests.
type Envelope struct {
	Success  bool              `json:"success"`
	Data     json.RawMessage   `json:"data"`
	Error    string            `json:"error"`
	Code     string            `json:"code"`
	Fields   map[string]string `json:"fields"`
	Messages []struct {
		Level string `json:"level"`
		Text  string `json:"text"`
	} `json:"messages"`
}

// DecodeEnvelope parses rec's body and, when dst is non-nil, its data field.
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, dst any) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	if dst != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

// AssertStatus fails when rec's status differs.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status code: got %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// AssertRedirect checks for a redirect to want.
func AssertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther && rec.Code != http.StatusFound {
		t.Errorf("expected redirect status, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("redirect location: got %q, want %q", loc, want)
	}
}

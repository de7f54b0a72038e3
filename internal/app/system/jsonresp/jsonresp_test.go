package jsonresp

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/notify"
	"go.uber.org/zap"
)

func decodeEnv(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestOKWithMessages(t *testing.T) {
	c := &notify.Collector{}
	c.Success("User approved.")
	rec := httptest.NewRecorder()

	OKWithMessages(rec, map[string]string{"id": "1"}, c)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	env := decodeEnv(t, rec)
	if !env.Success || len(env.Messages) != 1 || env.Messages[0].Text != "User approved." {
		t.Errorf("envelope = %+v", env)
	}
}

func TestFromError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperr.Validation("bad", map[string]string{"title": "Title is required."}), 400, "VALIDATION"},
		{"permission", apperr.Permission("no"), 403, "FORBIDDEN"},
		{"not found", apperr.NotFound("gone"), 404, "NOT_FOUND"},
		{"conflict", apperr.Conflict("nope"), 409, "CONFLICT"},
		{"collaborator", apperr.Collaborator("smtp down", errors.New("dial tcp")), 502, "UPSTREAM"},
		{"wrapped", errWrap{apperr.NotFound("gone")}, 404, "NOT_FOUND"},
		{"plain", errors.New("boom"), 500, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)

			FromError(rec, req, zap.NewNop(), tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			env := decodeEnv(t, rec)
			if env.Success {
				t.Error("success should be false")
			}
			if env.Code != tt.code {
				t.Errorf("code = %q, want %q", env.Code, tt.code)
			}
		})
	}
}

func TestFromError_KeepsFields(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, httptest.NewRequest(http.MethodPost, "/", nil), zap.NewNop(),
		apperr.Validation("Please fix the errors.", map[string]string{"title": "Title is required."}))

	env := decodeEnv(t, rec)
	if env.Fields["title"] != "Title is required." {
		t.Errorf("fields = %v", env.Fields)
	}
}

func TestFromError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, httptest.NewRequest(http.MethodGet, "/", nil), zap.NewNop(), errors.New("mongo: secret detail"))

	if strings.Contains(rec.Body.String(), "secret detail") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"title":"Meet"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"title":"x","extra":1}`, true},
		{"two objects", `{"title":"a"}{"title":"b"}`, true},
		{"malformed", `{"title":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := Decode(rec, req, &p)
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if ae, ok := apperr.As(err); !ok || ae.Status != 400 {
					t.Errorf("Decode() error = %v, want 400 validation", err)
				}
			}
		})
	}
}

type errWrap struct{ inner error }

func (e errWrap) Error() string { return "wrapped: " + e.inner.Error() }
func (e errWrap) Unwrap() error { return e.inner }

func TestRequireAPIClient(t *testing.T) {
	called := false
	h := RequireAPIClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		pass    bool
	}{
		{"get", http.MethodGet, nil, true},
		{"options preflight", http.MethodOptions, nil, true},
		{"json post", http.MethodPost, map[string]string{"Content-Type": "application/json; charset=utf-8"}, true},
		{"multipart with header", http.MethodPost, map[string]string{
			"Content-Type":     "multipart/form-data; boundary=x",
			"X-Requested-With": "XMLHttpRequest",
		}, true},
		{"empty form post", http.MethodPost, map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, false},
		{"text plain post", http.MethodPost, map[string]string{"Content-Type": "text/plain"}, false},
		{"multipart without header", http.MethodPost, map[string]string{"Content-Type": "multipart/form-data; boundary=x"}, false},
		{"delete without type", http.MethodDelete, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(tt.method, "/api/admin/users/1/approve", nil)
			req.Header.Set("Origin", "https://elsewhere.example")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if called != tt.pass {
				t.Fatalf("handler called = %v, want %v", called, tt.pass)
			}
			if !tt.pass {
				if rec.Code != http.StatusUnsupportedMediaType {
					t.Errorf("status = %d, want 415", rec.Code)
				}
				if env := decodeEnv(t, rec); env.Success || env.Code != "UNSUPPORTED_MEDIA_TYPE" {
					t.Errorf("envelope = %+v", env)
				}
			}
		})
	}
}

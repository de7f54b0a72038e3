package integrations

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/store/audit"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/integrations"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type testResult struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

// List handles GET /api/admin/integrations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sts, err := h.Providers.Statuses(ctx)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, sts)
}

// Get handles GET /api/admin/integrations/{provider}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := p.Status(ctx)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, toAppErr(err))
		return
	}
	jsonresp.OK(w, st)
}

// Configure handles POST /api/admin/integrations/{provider}. The body is the
// provider's credential object.
func (h *Handler) Configure(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	var raw json.RawMessage
	if err := jsonresp.Decode(w, r, &raw); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.configure(ctx, r, p, raw)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, toAppErr(err))
		return
	}
	jsonresp.OK(w, st)
}

// Delete handles DELETE /api/admin/integrations/{provider}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.disconnect(ctx, r, p)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, toAppErr(err))
		return
	}
	jsonresp.OK(w, st)
}

// Test handles POST /api/admin/integrations/{provider}/test.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msg, err := p.Test(ctx, testRequest(r))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, toAppErr(err))
		return
	}
	jsonresp.OK(w, testResult{Provider: p.Name(), Message: msg})
}

func (h *Handler) provider(w http.ResponseWriter, r *http.Request) (integrations.Provider, bool) {
	p, err := h.Providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, toAppErr(err))
		return nil, false
	}
	return p, true
}

func (h *Handler) configure(ctx context.Context, r *http.Request, p integrations.Provider, raw []byte) (integrations.Status, error) {
	_, _, actor, _ := authz.UserCtx(r)
	st, err := p.Configure(ctx, raw, actor)
	if err != nil {
		return st, err
	}
	h.AuditLog.Action(ctx, r, actor, audit.EventIntegrationConfigured, p.Name(), map[string]string{
		"account": st.Account,
	})
	return st, nil
}

func (h *Handler) disconnect(ctx context.Context, r *http.Request, p integrations.Provider) (integrations.Status, error) {
	_, _, actor, _ := authz.UserCtx(r)
	if err := p.Disconnect(ctx, actor); err != nil {
		return integrations.Status{}, err
	}
	h.AuditLog.Action(ctx, r, actor, audit.EventIntegrationRemoved, p.Name(), nil)
	return p.Status(ctx)
}

func testRequest(r *http.Request) integrations.TestRequest {
	var req integrations.TestRequest
	if u, ok := auth.CurrentUser(r); ok {
		req.ActorEmail = u.Email
	}
	return req
}

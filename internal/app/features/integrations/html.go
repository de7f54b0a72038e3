package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/councilhub/internal/app/store/audit"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/integrations"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const indexPath = "/admin/integrations"

type indexPage struct {
	viewdata.BaseVM
	Providers []integrations.Status
}

// configFields lists the form inputs each form-configured provider accepts.
var configFields = map[string][]string{
	models.ProviderGCS:       {"bucket", "service_account_json"},
	models.ProviderRecaptcha: {"site_key", "secret"},
}

// ServeIndex handles GET /admin/integrations.
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sts, err := h.Providers.Statuses(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load integrations failed", err, "Failed to load integrations.", "/dashboard")
		return
	}
	templates.Render(w, r, "integrations_index", indexPage{
		BaseVM:    viewdata.NewBaseVM(r, h.Site, "Integrations", "/dashboard").WithFlashes(h.SessionMgr.TakeFlashes(w, r)),
		Providers: sts,
	})
}

// HandleConfigure handles POST /admin/integrations/{provider}. Form values
// are collected into the same JSON object the API accepts.
func (h *Handler) HandleConfigure(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	fields, ok := configFields[name]
	if !ok {
		h.flashBack(w, r, "", apperr.Validation("This integration is not configured with a form.", nil))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 256<<10)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", indexPath)
		return
	}
	in := make(map[string]string, len(fields))
	for _, f := range fields {
		in[f] = strings.TrimSpace(r.PostFormValue(f))
	}
	raw, _ := json.Marshal(in)

	p, err := h.Providers.Get(name)
	if err != nil {
		h.flashBack(w, r, "", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.configure(ctx, r, p, raw)
	h.flashBack(w, r, st.Label+" saved.", err)
}

// HandleDisconnect handles POST /admin/integrations/{provider}/disconnect.
func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	p, err := h.Providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		h.flashBack(w, r, "", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.disconnect(ctx, r, p)
	h.flashBack(w, r, st.Label+" disconnected.", err)
}

// HandleTest handles POST /admin/integrations/{provider}/test.
func (h *Handler) HandleTest(w http.ResponseWriter, r *http.Request) {
	p, err := h.Providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		h.flashBack(w, r, "", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msg, err := p.Test(ctx, testRequest(r))
	h.flashBack(w, r, msg, err)
}

// Connect handles GET /admin/integrations/gmail/connect.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	consent, err := h.Gmail.Begin(ctx, actor, indexPath)
	if err != nil {
		h.flashBack(w, r, "", err)
		return
	}
	http.Redirect(w, r, consent, http.StatusFound)
}

// Callback handles GET /admin/integrations/gmail/callback.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if e := r.URL.Query().Get("error"); e != "" {
		h.flashBack(w, r, "", apperr.Validation("Google sign-in was cancelled ("+e+").", nil))
		return
	}
	_, _, actor, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ret, err := h.Gmail.Complete(ctx, actor, r.URL.Query().Get("state"), r.URL.Query().Get("code"))
	if err != nil {
		h.flashBack(w, r, "", err)
		return
	}
	h.AuditLog.Action(ctx, r, actor, audit.EventIntegrationConfigured, models.ProviderGmail, nil)
	h.flash(w, r, "Gmail connected.", nil)
	http.Redirect(w, r, urlutil.SafeReturn(ret, "", indexPath), http.StatusSeeOther)
}

// flashBack records the outcome and returns to the index page. Server
// failures are logged; everything else is shown to the admin.
func (h *Handler) flashBack(w http.ResponseWriter, r *http.Request, okMsg string, err error) {
	h.flash(w, r, okMsg, err)
	http.Redirect(w, r, indexPath, http.StatusSeeOther)
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, okMsg string, err error) {
	f := h.SessionMgr.Flasher()
	switch ae, ok := apperr.As(toAppErr(err)); {
	case err == nil:
		f.Success(okMsg)
	case ok:
		f.Error(ae.Message)
	default:
		h.Log.Error("integration action failed", zap.String("path", r.URL.Path), zap.Error(err))
		f.Error("Something went wrong. Please try again.")
	}
	if serr := f.Save(w, r); serr != nil {
		h.Log.Warn("save flash failed", zap.Error(serr))
	}
}

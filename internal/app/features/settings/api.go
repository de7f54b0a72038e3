package settings

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/dalemusser/councilhub/internal/app/store/audit"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/domain/models"
)

type adminView struct {
	Settings models.SiteSettings     `json:"settings"`
	Problems []settingsstore.Problem `json:"problems"`
}

type publicView struct {
	OrganizationName string   `json:"organization_name"`
	ContactEmail     string   `json:"contact_email,omitempty"`
	ContactPhone     string   `json:"contact_phone,omitempty"`
	Address          string   `json:"address,omitempty"`
	Timezone         string   `json:"timezone"`
	RegistrationOpen bool     `json:"registration_open"`
	EventCategories  []string `json:"event_categories"`
	FooterHTML       string   `json:"footer_html,omitempty"`
	RecaptchaSiteKey string   `json:"recaptcha_site_key,omitempty"`
}

// Get handles GET /api/admin/settings. Stored values that failed to decode
// are listed in problems; the defaults shown in their place are not saved
// until the next PUT.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, problems, err := h.Site.Load(ctx)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if problems == nil {
		problems = []settingsstore.Problem{}
	}
	jsonresp.OK(w, adminView{Settings: st, Problems: problems})
}

// Put handles PUT /api/admin/settings. The body is the full typed settings
// object; omitted fields are reset to their zero value and then validated.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var in models.SiteSettings
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	saved, err := h.save(ctx, r, in)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, adminView{Settings: saved, Problems: []settingsstore.Problem{}})
}

// Public handles GET /api/settings/public.
func (h *Handler) Public(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st := h.Site.Get(ctx)
	v := publicView{
		OrganizationName: st.OrganizationName,
		ContactEmail:     st.ContactEmail,
		ContactPhone:     st.ContactPhone,
		Address:          st.Address,
		Timezone:         st.Timezone,
		RegistrationOpen: st.RegistrationOpen,
		EventCategories:  st.EventCategories,
		FooterHTML:       st.FooterHTML,
	}
	if st.RecaptchaEnabled && h.Captcha != nil {
		v.RecaptchaSiteKey = h.Captcha.SiteKey(ctx)
	}
	jsonresp.OK(w, v)
}

// save cleans, validates and stores in, then records which keys changed.
func (h *Handler) save(ctx context.Context, r *http.Request, in models.SiteSettings) (models.SiteSettings, error) {
	in = settingsstore.Clean(in)
	if fields := settingsstore.Validate(in); len(fields) > 0 {
		return in, apperr.Validation("Some settings are invalid.", fields)
	}

	before := h.Site.Get(ctx)
	_, _, actor, _ := authz.UserCtx(r)
	if err := h.Site.Save(ctx, in, &actor, h.Clock.Now()); err != nil {
		return in, err
	}

	changed := changedKeys(before, in)
	if len(changed) > 0 {
		h.AuditLog.Action(ctx, r, actor, audit.EventSettingsUpdated, "settings", map[string]string{
			"keys": strings.Join(changed, ","),
		})
	}
	return in, nil
}

func changedKeys(a, b models.SiteSettings) []string {
	ea, eb := settingsstore.Encode(a), settingsstore.Encode(b)
	var out []string
	for k, v := range eb {
		if ea[k] != v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

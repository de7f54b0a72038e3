package settings

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type settingsPage struct {
	viewdata.BaseVM
	Settings   models.SiteSettings
	Categories string
	Problems   []settingsstore.Problem
	Errors     map[string]string
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, st models.SiteSettings) settingsPage {
	return settingsPage{
		BaseVM:     viewdata.NewBaseVM(r, h.Site, "Settings", "/dashboard").WithFlashes(h.SessionMgr.TakeFlashes(w, r)),
		Settings:   st,
		Categories: strings.Join(st.EventCategories, ", "),
	}
}

// ServeSettings handles GET /admin/settings.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, problems, err := h.Site.Load(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load settings failed", err, "Failed to load settings.", "/dashboard")
		return
	}
	data := h.page(w, r, st)
	data.Problems = problems
	templates.Render(w, r, "settings_form", data)
}

// HandleSettings handles POST /admin/settings.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/admin/settings")
		return
	}
	in := settingsFromForm(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	saved, err := h.save(ctx, r, in)
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok || ae.Status >= http.StatusInternalServerError {
			h.ErrLog.LogServerError(w, r, "save settings failed", err, "Failed to save settings.", "/admin/settings")
			return
		}
		data := h.page(w, r, saved)
		data.Errors = ae.Fields
		w.WriteHeader(http.StatusBadRequest)
		templates.Render(w, r, "settings_form", data)
		return
	}

	f := h.SessionMgr.Flasher()
	f.Success("Settings saved.")
	_ = f.Save(w, r)
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}

// settingsFromForm reads the form. An unparseable cell max becomes 0 so
// validation reports it.
func settingsFromForm(r *http.Request) models.SiteSettings {
	cellMax, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("calendar_cell_max")))
	return models.SiteSettings{
		OrganizationName: r.PostFormValue("organization_name"),
		ContactEmail:     r.PostFormValue("contact_email"),
		ContactPhone:     r.PostFormValue("contact_phone"),
		Address:          r.PostFormValue("address"),
		Timezone:         r.PostFormValue("timezone"),
		RegistrationOpen: r.PostFormValue("registration_open") != "",
		RecaptchaEnabled: r.PostFormValue("recaptcha_enabled") != "",
		EventCategories:  strings.Split(r.PostFormValue("event_categories"), ","),
		CalendarCellMax:  cellMax,
		FooterHTML:       r.PostFormValue("footer_html"),
	}
}

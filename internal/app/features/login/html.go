package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
	Verified  bool
}

// ServeLogin handles GET /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, h.Site, "Sign in", "/").WithFlashes(h.SessionMgr.TakeFlashes(w, r)),
		ReturnURL: query.Get(r, "return"),
		Verified:  query.Get(r, "verified") == "1",
	})
}

// HandleLoginPost handles POST /login.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	ret := strings.TrimSpace(r.FormValue("return"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.authenticate(ctx, r, email, r.FormValue("password"))
	var d *denial
	if errors.As(err, &d) {
		templates.Render(w, r, "login", loginFormData{
			BaseVM:    viewdata.NewBaseVM(r, h.Site, "Sign in", "/"),
			Error:     d.Message,
			Email:     email,
			ReturnURL: ret,
		})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login lookup failed", err, "A server error occurred.", "/login")
		return
	}

	if err := h.establish(w, r, u); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Unable to create session. Please try again.", "/login")
		return
	}
	http.Redirect(w, r, urlutil.SafeReturn(ret, "", "/dashboard"), http.StatusSeeOther)
}

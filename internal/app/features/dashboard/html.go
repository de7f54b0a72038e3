package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type dashboardData struct {
	viewdata.BaseVM
	Upcoming []models.Event
	Summary  *summary
}

// ServeDashboard handles GET /dashboard. Members see upcoming events;
// editors and admins also see the council totals.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	_, uname, _, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	data := dashboardData{
		BaseVM: viewdata.NewBaseVM(r, h.Site, "Dashboard", "/").WithFlashes(h.SessionMgr.TakeFlashes(w, r)),
	}
	if authz.IsEditor(r) {
		s, err := h.summary(ctx, authz.IsAdmin(r))
		if err != nil {
			h.ErrLog.LogServerError(w, r, "dashboard summary failed", err, "Failed to load the dashboard.", "/")
			return
		}
		data.Summary = &s
		data.Upcoming = s.Upcoming
	} else {
		evs, err := h.upcoming(ctx)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "dashboard events failed", err, "Failed to load the dashboard.", "/")
			return
		}
		data.Upcoming = evs
	}

	h.Log.Debug("dashboard served", zap.String("user", uname))
	templates.Render(w, r, "dashboard", data)
}

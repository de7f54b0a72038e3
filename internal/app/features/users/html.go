package users

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /admin/users. Users are grouped by bucket in
// the order admins work through them.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, actor, _ := authz.UserCtx(r)
	search := query.Get(r, "search")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groups := make([]bucketGroup, 0, len(lifecycle.Buckets))
	var legacy int64
	for _, b := range lifecycle.Buckets {
		b := b
		list, err := h.Users.List(ctx, userstore.ListFilter{Bucket: &b, Search: search})
		if err != nil {
			h.ErrLog.LogServerError(w, r, "list users failed", err, "A database error occurred.", "/dashboard")
			return
		}
		g := bucketGroup{Bucket: b, Label: bucketLabels[b], Count: int64(len(list))}
		for _, u := range list {
			g.Rows = append(g.Rows, rowFor(h.Exec.Policy, actor, role, u))
		}
		if b == lifecycle.Legacy {
			legacy = g.Count
		}
		groups = append(groups, g)
	}

	templates.Render(w, r, "users_list", listData{
		BaseVM:      viewdata.NewBaseVM(r, h.Site, "Users", "/dashboard").WithFlashes(h.SessionMgr.TakeFlashes(w, r)),
		Search:      search,
		Groups:      groups,
		LegacyCount: legacy,
	})
}

// HandleAction handles POST /admin/users/{id}/{action}. The outcome is
// flashed and the browser is sent back to the list.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	action, ok := lifecycle.ParseAction(chi.URLParam(r, "action"))
	if !ok || action == lifecycle.ActionEdit {
		h.ErrLog.LogBadRequest(w, r, "unknown user action", nil, "Unknown action.", "/admin/users")
		return
	}
	target, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad user id", err, "Invalid user id.", "/admin/users")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/admin/users")
		return
	}
	role, _, actor, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Execute reports success and failure through the flasher.
	f := h.SessionMgr.Flasher()
	if _, err := h.Exec.Execute(ctx, lifecycle.Request{
		ActorID:   actor,
		ActorRole: role,
		TargetID:  target,
		Action:    action,
		Reason:    strings.TrimSpace(r.FormValue("reason")),
	}, f); err != nil {
		h.Log.Info("user action refused", zap.String("action", string(action)), zap.Error(err))
	}
	h.redirectBack(w, r, f)
}

// HandleMigrate handles POST /admin/users/migrate-legacy.
func (h *Handler) HandleMigrate(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	f := h.SessionMgr.Flasher()
	if _, err := h.Exec.MigrateLegacy(ctx, actor, f); err != nil {
		h.ErrLog.LogServerError(w, r, "migrate legacy failed", err, "A database error occurred.", "/admin/users")
		return
	}
	h.redirectBack(w, r, f)
}

func (h *Handler) redirectBack(w http.ResponseWriter, r *http.Request, f *auth.Flasher) {
	if err := f.Save(w, r); err != nil {
		h.Log.Warn("save flash failed", zap.Error(err))
	}
	dest := "/admin/users"
	if s := strings.TrimSpace(r.FormValue("search")); s != "" {
		dest += "?search=" + url.QueryEscape(s)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

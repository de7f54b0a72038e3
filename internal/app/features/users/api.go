package users

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/notify"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errBadID = apperr.Validation("Invalid user id.", nil)

// List handles GET /api/admin/users?bucket=&search=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	role, _, actor, _ := authz.UserCtx(r)

	var f userstore.ListFilter
	f.Search = query.Get(r, "search")
	if raw := query.Get(r, "bucket"); raw != "" {
		b, ok := lifecycle.ParseBucket(raw)
		if !ok {
			jsonresp.FromError(w, r, h.Log, apperr.Validation("Unknown bucket.", map[string]string{"bucket": "Unknown bucket."}))
			return
		}
		f.Bucket = &b
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.List(ctx, f)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	counts, err := h.Users.CountByBucket(ctx)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	rows := make([]userRow, 0, len(list))
	for _, u := range list {
		rows = append(rows, rowFor(h.Exec.Policy, actor, role, u))
	}
	jsonresp.OK(w, listResponse{Users: rows, Counts: counts})
}

// Act handles POST /api/admin/users/{id}/{action}.
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	action, ok := lifecycle.ParseAction(chi.URLParam(r, "action"))
	if !ok || action == lifecycle.ActionEdit || action == lifecycle.ActionDelete {
		jsonresp.Fail(w, r, http.StatusNotFound, "NOT_FOUND", "Unknown action.")
		return
	}
	var body actionRequest
	if r.ContentLength != 0 {
		if err := jsonresp.Decode(w, r, &body); err != nil {
			jsonresp.FromError(w, r, h.Log, err)
			return
		}
	}
	h.run(w, r, lifecycle.Request{Action: action, Reason: body.Reason})
}

// Delete handles DELETE /api/admin/users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, lifecycle.Request{Action: lifecycle.ActionDelete})
}

// Patch handles PATCH /api/admin/users/{id}.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var edit lifecycle.ProfileEdit
	if err := jsonresp.Decode(w, r, &edit); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if edit.Role != nil && !authz.CanAssignRole(r, *edit.Role) {
		jsonresp.FromError(w, r, h.Log, apperr.Permission("You can't assign that role."))
		return
	}
	h.run(w, r, lifecycle.Request{Action: lifecycle.ActionEdit, Edit: &edit})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, req lifecycle.Request) {
	target, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, errBadID)
		return
	}
	role, _, actor, _ := authz.UserCtx(r)
	req.ActorID, req.ActorRole, req.TargetID = actor, role, target

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c := &notify.Collector{}
	res, err := h.Exec.Execute(ctx, req, c)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	data := map[string]any{"result": res}
	if req.Action != lifecycle.ActionDelete && req.Action != lifecycle.ActionReject {
		if u, err := h.Users.GetByID(ctx, target); err == nil {
			data["user"] = rowFor(h.Exec.Policy, actor, role, *u)
		}
	}
	jsonresp.OKWithMessages(w, data, c)
}

// MigrateLegacy handles POST /api/admin/users/migrate-legacy.
func (h *Handler) MigrateLegacy(w http.ResponseWriter, r *http.Request) {
	_, _, actor, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	c := &notify.Collector{}
	res, err := h.Exec.MigrateLegacy(ctx, actor, c)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OKWithMessages(w, res, c)
}

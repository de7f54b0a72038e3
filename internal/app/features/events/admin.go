package events

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	"github.com/dalemusser/councilhub/internal/app/store/audit"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errBadID = apperr.Validation("Invalid event id.", nil)

// AdminList handles GET /api/admin/events?status=&category=&q=&from=&to=.
// Every status is included unless filtered.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.listFilter(ctx, r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if st := query.Get(r, "status"); st != "" {
		f.Status = st
	}
	f.Search = query.Get(r, "q")
	if n, err := strconv.ParseInt(query.Get(r, "limit"), 10, 64); err == nil && n > 0 {
		f.Limit = n
	}

	list, err := h.Events.List(ctx, f)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	cats, err := h.Events.Categories(ctx)
	if err != nil {
		h.Log.Warn("list event categories failed", zap.Error(err))
	}
	jsonresp.OK(w, map[string]any{"events": list, "categories": cats})
}

// Create handles POST /api/admin/events.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonresp.Decode(w, r, &req); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := req.toEvent(h.location(ctx))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	_, _, actor, _ := authz.UserCtx(r)
	e.CreatedBy = &actor

	created, err := h.Events.Create(ctx, e)
	if errors.Is(err, eventstore.ErrSlugExhausted) {
		jsonresp.FromError(w, r, h.Log, apperr.Conflict("An event with a similar title already exists. Try a different title."))
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	h.AuditLog.Action(ctx, r, actor, audit.EventEventCreated, created.Title, map[string]string{
		"event_id": created.ID.Hex(),
		"status":   created.Status,
	})
	jsonresp.Created(w, created)
}

// Get handles GET /api/admin/events/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, errBadID)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.FromError(w, r, h.Log, errEventNotFound)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, e)
}

// Update handles PATCH /api/admin/events/{id}. The merged event is
// validated before anything is written.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, errBadID)
		return
	}
	var req patchRequest
	if err := jsonresp.Decode(w, r, &req); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cur, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.FromError(w, r, h.Log, errEventNotFound)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	p, err := req.toPatch(*cur, h.location(ctx))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	updated, err := h.Events.Update(ctx, id, p, h.Clock.Now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.FromError(w, r, h.Log, errEventNotFound)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	_, _, actor, _ := authz.UserCtx(r)
	h.AuditLog.Action(ctx, r, actor, audit.EventEventUpdated, updated.Title, map[string]string{
		"event_id": updated.ID.Hex(),
		"status":   updated.Status,
	})
	jsonresp.OK(w, updated)
}

// Delete handles DELETE /api/admin/events/{id}. The event's tasks go with it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, errBadID)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cur, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.FromError(w, r, h.Log, errEventNotFound)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	deleted, tasks, err := h.Events.Delete(ctx, id)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if !deleted {
		jsonresp.FromError(w, r, h.Log, errEventNotFound)
		return
	}
	_, _, actor, _ := authz.UserCtx(r)
	h.AuditLog.Action(ctx, r, actor, audit.EventEventDeleted, cur.Title, map[string]string{
		"event_id":      id.Hex(),
		"tasks_deleted": strconv.FormatInt(tasks, 10),
	})
	jsonresp.OK(w, map[string]any{"deleted": true, "tasks_deleted": tasks})
}

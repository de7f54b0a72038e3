package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	taskstore "github.com/dalemusser/councilhub/internal/app/store/tasks"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/inputval"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	errBadID         = apperr.Validation("Invalid id.", nil)
	errEventNotFound = apperr.NotFound("Event not found.")
	errTaskNotFound  = apperr.NotFound("Task not found.")
	errNoAssignee    = apperr.Validation("Please fix the highlighted fields.", map[string]string{"assignee_id": "No user with that ID."})
)

func idParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return id, errBadID
	}
	return id, nil
}

// eventFor loads the event named by the {id} URL parameter.
func (h *Handler) eventFor(ctx context.Context, r *http.Request) (primitive.ObjectID, error) {
	id, err := idParam(r)
	if err != nil {
		return id, err
	}
	ok, err := h.Events.Exists(ctx, id)
	if err != nil {
		return id, err
	}
	if !ok {
		return id, errEventNotFound
	}
	return id, nil
}

func (h *Handler) checkAssignee(ctx context.Context, hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, _ := primitive.ObjectIDFromHex(hex)
	if _, err := h.Users.GetByID(ctx, id); errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errNoAssignee
	} else if err != nil {
		return nil, err
	}
	return &id, nil
}

// List handles GET /api/admin/events/{id}/tasks.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	eventID, err := h.eventFor(ctx, r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	list, err := h.Tasks.ListByEvent(ctx, eventID)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Task{}
	}
	jsonresp.OK(w, list)
}

// Create handles POST /api/admin/events/{id}/tasks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonresp.Decode(w, r, &req); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	req.normalize()
	if err := inputval.Validate(req).Err(); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	eventID, err := h.eventFor(ctx, r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	t := models.Task{
		EventID:     eventID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.DueDate != "" {
		due, err := parseDue(req.DueDate)
		if err != nil {
			jsonresp.FromError(w, r, h.Log, apperr.Validation("Please fix the highlighted fields.", map[string]string{"due_date": "Due date is not a valid date."}))
			return
		}
		t.DueDate = &due
	}
	if t.AssigneeID, err = h.checkAssignee(ctx, req.AssigneeID); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	_, _, actor, _ := authz.UserCtx(r)
	t.CreatedBy = &actor

	created, err := h.Tasks.Create(ctx, t)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.Created(w, created)
}

// Update handles PATCH /api/admin/tasks/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	var req patchRequest
	if err := jsonresp.Decode(w, r, &req); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if err := req.validate(); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p := taskstore.Patch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.AssigneeID != nil {
		a := strings.TrimSpace(*req.AssigneeID)
		if a == "" {
			p.ClearAssignee = true
		} else if p.AssigneeID, err = h.checkAssignee(ctx, a); err != nil {
			jsonresp.FromError(w, r, h.Log, err)
			return
		}
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			p.ClearDueDate = true
		} else {
			due, _ := parseDue(*req.DueDate)
			p.DueDate = &due
		}
	}

	t, err := h.Tasks.Update(ctx, id, p, h.Clock.Now())
	h.respond(w, r, t, err)
}

// Toggle handles POST /api/admin/tasks/{id}/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.Toggle(ctx, id, h.Clock.Now())
	h.respond(w, r, t, err)
}

// Delete handles DELETE /api/admin/tasks/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	deleted, err := h.Tasks.Delete(ctx, id)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if !deleted {
		jsonresp.FromError(w, r, h.Log, errTaskNotFound)
		return
	}
	jsonresp.OK(w, map[string]bool{"deleted": true})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, t *models.Task, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.FromError(w, r, h.Log, errTaskNotFound)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, t)
}

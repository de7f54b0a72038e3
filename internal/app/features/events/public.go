package events

import (
	"context"
	"errors"
	"net/http"
	"strings"

	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

var errEventNotFound = apperr.NotFound("Event not found.")

// PublicList handles GET /api/events?from=&to=&category=. Only published
// events are returned.
func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.listFilter(ctx, r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	f.Status = models.EventPublished

	list, err := h.Events.List(ctx, f)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	jsonresp.OK(w, list)
}

// PublicGet handles GET /api/events/{slug}. Unpublished events are
// reported as missing unless the caller is an editor.
func (h *Handler) PublicGet(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "slug")))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Events.GetBySlug(ctx, slug)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !e.Published && !authz.IsEditor(r)) {
		jsonresp.FromError(w, r, h.Log, errEventNotFound)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, e)
}

// Calendar handles GET /api/events/calendar?year=&month=&status=&category=.
// The status filter applies to editors; everyone else sees published events.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	q, err := parseCalendarQuery(query.Get(r, "year"), query.Get(r, "month"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	q.Category = query.Get(r, "category")
	q.Status = models.EventPublished
	if authz.IsEditor(r) {
		q.Status = query.Get(r, "status")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cal, err := h.buildCalendar(ctx, q)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, cal)
}

// listFilter reads from, to and category from the query string.
func (h *Handler) listFilter(ctx context.Context, r *http.Request) (eventstore.ListFilter, error) {
	var f eventstore.ListFilter
	loc := h.location(ctx)
	fields := map[string]string{}
	if s := query.Get(r, "from"); s != "" {
		t, err := parseDate(s, loc)
		if err != nil {
			fields["from"] = "Not a valid date."
		}
		f.From = &t
	}
	if s := query.Get(r, "to"); s != "" {
		t, err := parseDayEnd(s, loc)
		if err != nil {
			fields["to"] = "Not a valid date."
		}
		f.To = &t
	}
	if len(fields) > 0 {
		return f, apperr.Validation("Invalid date range.", fields)
	}
	f.Category = query.Get(r, "category")
	return f, nil
}

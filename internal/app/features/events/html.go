package events

import (
	"context"
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
)

type calendarPage struct {
	viewdata.BaseVM
	Cal      calendarResponse
	Category string
	Status   string
	Weekdays []string
}

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ServeCalendar handles GET /admin/events/calendar?year=&month=.
func (h *Handler) ServeCalendar(w http.ResponseWriter, r *http.Request) {
	q, err := parseCalendarQuery(query.Get(r, "year"), query.Get(r, "month"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad calendar month", err, "That month is not valid.", "/admin/events/calendar")
		return
	}
	q.Category = query.Get(r, "category")
	q.Status = query.Get(r, "status")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cal, err := h.buildCalendar(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build calendar failed", err, "A database error occurred.", "/dashboard")
		return
	}

	templates.Render(w, r, "events_calendar", calendarPage{
		BaseVM:   viewdata.NewBaseVM(r, h.Site, "Events calendar", "/dashboard").WithFlashes(h.SessionMgr.TakeFlashes(w, r)),
		Cal:      cal,
		Category: q.Category,
		Status:   q.Status,
		Weekdays: weekdays,
	})
}

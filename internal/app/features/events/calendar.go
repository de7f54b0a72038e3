package events

import (
	"context"
	"strconv"
	"time"

	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/calendar"
	"github.com/dalemusser/councilhub/internal/domain/models"
)

// calendarQuery selects a month grid. Zero Year or Month means the current one.
type calendarQuery struct {
	Year     int
	Month    int
	Status   string
	Category string
}

func parseCalendarQuery(year, month string) (calendarQuery, error) {
	var q calendarQuery
	fields := map[string]string{}
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil || y < 1900 || y > 9999 {
			fields["year"] = "Year must be a four-digit number."
		}
		q.Year = y
	}
	if month != "" {
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			fields["month"] = "Month must be between 1 and 12."
		}
		q.Month = m
	}
	if len(fields) > 0 {
		return q, apperr.Validation("Invalid calendar month.", fields)
	}
	return q, nil
}

// buildCalendar loads the events touching the month's 42-day grid and
// buckets them, keeping at most the configured number visible per day.
func (h *Handler) buildCalendar(ctx context.Context, q calendarQuery) (calendarResponse, error) {
	loc := h.location(ctx)
	now := h.Clock.Now().In(loc)
	if q.Year == 0 {
		q.Year = now.Year()
	}
	if q.Month == 0 {
		q.Month = int(now.Month())
	}
	m := calendar.NewMonth(q.Year, q.Month, loc)

	start, end := m.GridRange()
	list, err := h.Events.List(ctx, eventstore.ListFilter{
		From:     &start,
		To:       &end,
		Status:   q.Status,
		Category: q.Category,
	})
	if err != nil {
		return calendarResponse{}, err
	}
	return gridResponse(m, list, now, h.Site.Get(ctx).CalendarCellMax), nil
}

func gridResponse(m calendar.Month, list []models.Event, now time.Time, max int) calendarResponse {
	if max <= 0 {
		max = models.DefaultSiteSettings().CalendarCellMax
	}
	cells := calendar.BuildMonthGrid(m.Year, m.Month, m.Loc)
	calendar.MarkToday(cells, now)
	buckets := calendar.Bucket(cells, list, max)

	days := make([]calendarDay, len(buckets))
	for i, b := range buckets {
		days[i] = calendarDay{
			Date:           b.Date.Format("2006-01-02"),
			Day:            b.Date.Day(),
			IsCurrentMonth: b.IsCurrentMonth,
			IsToday:        b.IsToday,
			Events:         summarize(b.Events),
			More:           b.More,
		}
	}
	var weeks [][]calendarDay
	for i := 0; i < len(days); i += 7 {
		weeks = append(weeks, days[i:i+7])
	}

	prev, next := m.Prev(), m.Next()
	return calendarResponse{
		Year:  m.Year,
		Month: int(m.Month),
		Title: m.First().Format("January 2006"),
		Prev:  monthRef{Year: prev.Year, Month: int(prev.Month)},
		Next:  monthRef{Year: next.Year, Month: int(next.Month)},
		Weeks: weeks,
	}
}

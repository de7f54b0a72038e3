package events

import (
	"errors"
	"strings"
	"time"

	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/councilhub/internal/app/system/inputval"
	"github.com/dalemusser/councilhub/internal/app/system/normalize"
	"github.com/dalemusser/councilhub/internal/domain/models"
)

var errBadDate = errors.New("unrecognized date")

// dateLayouts are tried in order. Zone-less values are read in the council's
// timezone.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errBadDate
}

// parseDayEnd is parseDate, except that a bare date means the last instant
// of that day.
func parseDayEnd(s string, loc *time.Location) (time.Time, error) {
	t, err := parseDate(s, loc)
	if err != nil {
		return t, err
	}
	if len(strings.TrimSpace(s)) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

type createRequest struct {
	Title       string  `json:"title" validate:"required,max=200" label:"Title"`
	Description string  `json:"description"`
	StartDate   string  `json:"start_date" validate:"required" label:"Start date"`
	EndDate     *string `json:"end_date"`
	Location    string  `json:"location" validate:"max=200" label:"Location"`
	Category    string  `json:"category" validate:"max=60" label:"Category"`
	Status      string  `json:"status" validate:"omitempty,eventstatus" label:"Status"`
}

// patchRequest fields are optional. An empty end_date clears it.
type patchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
}

// toPatch parses dates, sanitizes the description and validates the
// result of applying the patch to cur.
func (p patchRequest) toPatch(cur models.Event, loc *time.Location) (eventstore.Patch, error) {
	var out eventstore.Patch
	fields := map[string]string{}

	out.Title = p.Title
	out.Location = p.Location
	out.Category = p.Category
	if p.Description != nil {
		d := htmlsanitize.Sanitize(*p.Description)
		out.Description = &d
	}
	if p.StartDate != nil {
		t, err := parseDate(*p.StartDate, loc)
		if err != nil {
			fields["start_date"] = "Start date is not a valid date."
		} else {
			out.StartDate = &t
		}
	}
	if p.EndDate != nil {
		if strings.TrimSpace(*p.EndDate) == "" {
			out.ClearEndDate = true
		} else if t, err := parseDate(*p.EndDate, loc); err != nil {
			fields["end_date"] = "End date is not a valid date."
		} else {
			out.EndDate = &t
		}
	}
	if p.Status != nil {
		st := normalize.Status(*p.Status)
		out.Status = &st
	}
	if len(fields) > 0 {
		return out, apperr.Validation("Please fix the highlighted fields.", fields)
	}
	return out, validateEvent(out.Apply(cur))
}

func (c createRequest) toEvent(loc *time.Location) (models.Event, error) {
	e := models.Event{
		Title:       normalize.Name(c.Title),
		Description: htmlsanitize.Sanitize(c.Description),
		Location:    normalize.Name(c.Location),
		Category:    normalize.Name(c.Category),
		Status:      normalize.Status(c.Status),
	}
	if e.Status == "" {
		e.Status = models.EventDraft
	}

	c.Title = strings.TrimSpace(c.Title)
	c.StartDate = strings.TrimSpace(c.StartDate)
	fields := inputval.Validate(c).Fields()
	if fields == nil {
		fields = map[string]string{}
	}
	if c.StartDate != "" {
		if t, err := parseDate(c.StartDate, loc); err != nil {
			fields["start_date"] = "Start date is not a valid date."
		} else {
			e.StartDate = t
		}
	}
	if c.EndDate != nil && strings.TrimSpace(*c.EndDate) != "" {
		if t, err := parseDate(*c.EndDate, loc); err != nil {
			fields["end_date"] = "End date is not a valid date."
		} else {
			e.EndDate = &t
		}
	}
	if len(fields) > 0 {
		return e, apperr.Validation("Please fix the highlighted fields.", fields)
	}
	return e, validateEvent(e)
}

// validateEvent checks a complete event: title present, end not before
// start, known status.
func validateEvent(e models.Event) error {
	fields := map[string]string{}
	if strings.TrimSpace(e.Title) == "" {
		fields["title"] = "Title is required."
	}
	if len(e.Title) > 200 {
		fields["title"] = "Title must be at most 200 characters."
	}
	if e.StartDate.IsZero() {
		fields["start_date"] = "Start date is required."
	}
	if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
		fields["end_date"] = "End date can't be before the start date."
	}
	if !models.ValidEventStatus(e.Status) {
		fields["status"] = "Unknown status."
	}
	if len(fields) > 0 {
		return apperr.Validation("Please fix the highlighted fields.", fields)
	}
	return nil
}

// eventSummary is the compact form placed in calendar cells.
type eventSummary struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Category  string     `json:"category,omitempty"`
	Status    string     `json:"status"`
}

func summarize(es []models.Event) []eventSummary {
	out := make([]eventSummary, len(es))
	for i, e := range es {
		out[i] = eventSummary{
			ID:        e.ID.Hex(),
			Title:     e.Title,
			Slug:      e.Slug,
			StartDate: e.StartDate,
			EndDate:   e.EndDate,
			Category:  e.Category,
			Status:    e.Status,
		}
	}
	return out
}

type monthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type calendarDay struct {
	Date           string         `json:"date"`
	Day            int            `json:"-"`
	IsCurrentMonth bool           `json:"is_current_month"`
	IsToday        bool           `json:"is_today"`
	Events         []eventSummary `json:"events"`
	More           int            `json:"more"`
}

type calendarResponse struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Title string          `json:"title"`
	Prev  monthRef        `json:"prev"`
	Next  monthRef        `json:"next"`
	Weeks [][]calendarDay `json:"weeks"`
}

package tasks

import (
	"strings"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/inputval"
	"github.com/dalemusser/councilhub/internal/app/system/normalize"
	"github.com/dalemusser/councilhub/internal/domain/models"
)

type createRequest struct {
	Title       string `json:"title" validate:"required,max=200" label:"Title"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
	AssigneeID  string `json:"assignee_id" validate:"omitempty,objectid" label:"Assignee"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE" label:"Status"`
	Priority    string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH" label:"Priority"`
}

// patchRequest fields are optional. Empty assignee_id or due_date clears it.
type patchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssigneeID  *string `json:"assignee_id"`
	DueDate     *string `json:"due_date"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
}

func (c *createRequest) normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.AssigneeID = strings.TrimSpace(c.AssigneeID)
	c.DueDate = strings.TrimSpace(c.DueDate)
	c.Status = normalize.Status(c.Status)
	c.Priority = normalize.Status(c.Priority)
}

func (p patchRequest) validate() error {
	fields := map[string]string{}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			fields["title"] = "Title is required."
		} else if len(t) > 200 {
			fields["title"] = "Title must be at most 200 characters."
		}
	}
	if p.AssigneeID != nil {
		if a := strings.TrimSpace(*p.AssigneeID); a != "" && !inputval.IsValidObjectID(a) {
			fields["assignee_id"] = "Assignee must be a valid ID."
		}
	}
	if p.Status != nil && !models.ValidTaskStatus(normalize.Status(*p.Status)) {
		fields["status"] = "Status must be one of: " + strings.Join(models.TaskStatuses, ", ") + "."
	}
	if p.Priority != nil && !models.ValidTaskPriority(normalize.Status(*p.Priority)) {
		fields["priority"] = "Priority must be one of: " + strings.Join(models.TaskPriorities, ", ") + "."
	}
	if p.DueDate != nil && strings.TrimSpace(*p.DueDate) != "" {
		if _, err := parseDue(*p.DueDate); err != nil {
			fields["due_date"] = "Due date is not a valid date."
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("Please fix the highlighted fields.", fields)
	}
	return nil
}

// parseDue accepts a date or an RFC 3339 timestamp. Bare dates are UTC.
func parseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses. Any status may follow any other.
const (
	EventDraft     = "DRAFT"
	EventPublished = "PUBLISHED"
	EventCancelled = "CANCELLED"
	EventCompleted = "COMPLETED"
)

// EventStatuses lists every event status.
var EventStatuses = []string{EventDraft, EventPublished, EventCancelled, EventCompleted}

// Event is a council calendar entry. A zero EndDate means a single-day event.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"` // sanitized HTML
	StartDate   time.Time          `bson:"start_date" json:"start_date"`
	EndDate     *time.Time         `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Status      string             `bson:"status" json:"status"`
	Published   bool               `bson:"published" json:"published"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// Start returns the event start instant.
func (e Event) Start() time.Time { return e.StartDate }

// End returns the event end instant, or the zero time for single-day events.
func (e Event) End() time.Time {
	if e.EndDate == nil {
		return time.Time{}
	}
	return *e.EndDate
}

// ValidEventStatus reports whether s is a known event status.
func ValidEventStatus(s string) bool {
	for _, v := range EventStatuses {
		if v == s {
			return true
		}
	}
	return false
}

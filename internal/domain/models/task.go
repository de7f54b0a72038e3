// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses.
const (
	TaskTodo       = "TODO"
	TaskInProgress = "IN_PROGRESS"
	TaskDone       = "DONE"
)

// Task priorities.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// Task is a to-do item attached to an event.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	EventID     primitive.ObjectID  `bson:"event_id" json:"event_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	AssigneeID  *primitive.ObjectID `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Status      string              `bson:"status" json:"status"`
	Priority    string              `bson:"priority" json:"priority"`
	CompletedAt *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// TaskStatuses lists every task status.
var TaskStatuses = []string{TaskTodo, TaskInProgress, TaskDone}

// TaskPriorities lists every task priority.
var TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool { return contains(TaskStatuses, s) }

// ValidTaskPriority reports whether s is a known task priority.
func ValidTaskPriority(s string) bool { return contains(TaskPriorities, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

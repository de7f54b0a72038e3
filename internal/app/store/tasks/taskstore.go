// Package taskstore persists event tasks.
package taskstore

import (
	"context"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/normalize"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts t, defaulting status to TODO and priority to MEDIUM.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	t.Title = normalize.Name(t.Title)
	t.Status = normalize.Status(t.Status)
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	t.Priority = normalize.Status(t.Priority)
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt
	if t.Status == models.TaskDone && t.CompletedAt == nil {
		done := t.CreatedAt
		t.CompletedAt = &done
	}

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByEvent returns the event's tasks: open ones first, then by due date.
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, options.Find().SetSort(bson.D{
		{Key: "status", Value: -1}, // TODO, IN_PROGRESS, DONE
		{Key: "due_date", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch holds optional task changes. ClearAssignee and ClearDueDate unset
// those fields.
type Patch struct {
	Title         *string
	Description   *string
	AssigneeID    *primitive.ObjectID
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
	Status        *string
	Priority      *string
}

// Update applies p. Moving to DONE stamps completed_at; moving away clears it.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch, now time.Time) (*models.Task, error) {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if p.Title != nil {
		set["title"] = normalize.Name(*p.Title)
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.ClearAssignee {
		unset["assignee_id"] = ""
	} else if p.AssigneeID != nil {
		set["assignee_id"] = *p.AssigneeID
	}
	if p.ClearDueDate {
		unset["due_date"] = ""
	} else if p.DueDate != nil {
		set["due_date"] = *p.DueDate
	}
	if p.Priority != nil {
		set["priority"] = normalize.Status(*p.Priority)
	}
	if p.Status != nil {
		st := normalize.Status(*p.Status)
		set["status"] = st
		if st == models.TaskDone {
			set["completed_at"] = now
		} else {
			unset["completed_at"] = ""
		}
	}

	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}
	var t models.Task
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ToggleStatus returns the status a toggle moves to: DONE becomes TODO and
// anything open becomes DONE.
func ToggleStatus(current string) string {
	if current == models.TaskDone {
		return models.TaskTodo
	}
	return models.TaskDone
}

// Toggle flips the task between open and DONE.
func (s *Store) Toggle(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.Task, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := ToggleStatus(t.Status)
	// Conditional on the status we read so two concurrent toggles cannot both apply.
	set := bson.M{"status": next, "updated_at": now}
	upd := bson.M{"$set": set}
	if next == models.TaskDone {
		set["completed_at"] = now
	} else {
		upd["$unset"] = bson.M{"completed_at": ""}
	}

	var out models.Task
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": t.Status}, upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err == mongo.ErrNoDocuments {
		// Someone else changed it first; report the current state.
		return s.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the task. It reports false when nothing matched.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// CountOpen counts tasks that are not DONE.
func (s *Store) CountOpen(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": bson.M{"$ne": models.TaskDone}})
}

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures inserts test documents directly into the collections.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures for db.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database { return f.db }

// UserState selects the lifecycle fields of a fixture user.
type UserState int

const (
	StateActive UserState = iota
	StatePending
	StateUnverified
	StateLegacy
)

// CreateUser inserts a user in the given lifecycle state. Unverified users
// get the token "tok-<email>".
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string, state UserState) models.User {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Name:         name,
		NameCI:       text.Fold(name),
		Role:         role,
		MemberStatus: models.StatusMember,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch state {
	case StateActive:
		u.EmailVerified = true
		u.Approved = true
		u.ApprovedAt = &now
	case StatePending:
		u.EmailVerified = true
	case StateUnverified:
		tok := "tok-" + email
		u.EmailVerificationToken = &tok
	case StateLegacy:
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateEvent inserts an event. end may be nil for a single-day event.
func (f *Fixtures) CreateEvent(ctx context.Context, title, status string, start time.Time, end *time.Time) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		Slug:      primitive.NewObjectID().Hex(),
		StartDate: start,
		EndDate:   end,
		Category:  "Training",
		Status:    status,
		Published: status == models.EventPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateTask inserts a TODO task on eventID.
func (f *Fixtures) CreateTask(ctx context.Context, eventID primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:        primitive.NewObjectID(),
		EventID:   eventID,
		Title:     title,
		Status:    models.TaskTodo,
		Priority:  models.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateContact inserts a directory entry.
func (f *Fixtures) CreateContact(ctx context.Context, name, org, contactType string) models.Contact {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Contact{
		ID:            primitive.NewObjectID(),
		ContactName:   name,
		ContactNameCI: text.Fold(name),
		Organization:  org,
		ContactType:   contactType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("contacts").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test contact: %v", err)
	}
	return c
}

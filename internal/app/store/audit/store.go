// Package audit stores security and admin audit events.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess          = "login_success"
	EventLoginFailedNotFound   = "login_failed_user_not_found"
	EventLoginFailedPassword   = "login_failed_wrong_password"
	EventLoginFailedNotAllowed = "login_failed_not_allowed"
	EventLogout                = "logout"
	EventRegistered            = "registered"
	EventEmailVerified         = "email_verified"
)

// Admin event types. Account actions use "account_" plus the lifecycle
// action name (account_approve, account_reject, ...).
const (
	EventAccountPrefix         = "account_"
	EventEventCreated          = "event_created"
	EventEventUpdated          = "event_updated"
	EventEventDeleted          = "event_deleted"
	EventContactsImported      = "contacts_imported"
	EventSettingsUpdated       = "settings_updated"
	EventIntegrationConfigured = "integration_configured"
	EventIntegrationRemoved    = "integration_disconnected"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"` // who acted

	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	Success       bool              `bson:"success" json:"success"`
	FailureReason string            `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	Details       map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query. Zero fields are ignored.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	ActorID   *primitive.ObjectID
	Category  string
	EventType string
	Since     *time.Time
	Limit     int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates the time, user and actor indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

// Log records an event, filling in ID and Timestamp when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]Event, error) {
	q := bson.M{}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.ActorID != nil {
		q["actor_id"] = *f.ActorID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Since != nil {
		q["timestamp"] = bson.M{"$gte": *f.Since}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	cur, err := s.c.Find(ctx, q, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByUser returns recent events affecting userID.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{UserID: &userID, Limit: limit})
}

// GetRecent returns the most recent events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}

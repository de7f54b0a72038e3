// Package oauthstate keeps one-time nonces for in-flight OAuth consent
// flows. The nonce travels inside a signed state parameter; the record here
// makes each nonce single use and binds it to the admin who started the flow.
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultTTL bounds how long a consent screen may stay open.
const DefaultTTL = 10 * time.Minute

// State is one pending consent flow.
type State struct {
	Nonce     string             `bson:"nonce"`
	Provider  string             `bson:"provider"`
	ActorID   primitive.ObjectID `bson:"actor_id"`
	ReturnURL string             `bson:"return_url,omitempty"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store manages OAuth state nonces in MongoDB. Expired rows are removed by
// the TTL index on expires_at.
type Store struct {
	c *mongo.Collection
}

// New creates a new OAuth state Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save records a nonce. A zero ExpiresAt gets DefaultTTL from now.
func (s *Store) Save(ctx context.Context, st State) error {
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	if st.ExpiresAt.IsZero() {
		st.ExpiresAt = now.Add(DefaultTTL)
	}
	_, err := s.c.InsertOne(ctx, st)
	return err
}

// Consume deletes and returns the state for nonce if it exists, belongs to
// provider, and has not expired. ok is false otherwise.
func (s *Store) Consume(ctx context.Context, nonce, provider string) (State, bool, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"nonce":      nonce,
		"provider":   provider,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

// CleanupExpired removes expired nonces. This is a backup for when TTL
// cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

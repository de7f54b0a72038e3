package integrationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no credential is stored for a provider.
var ErrNotFound = errors.New("integration not configured")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("integrations")}
}

// Get returns the stored credential for provider, or ErrNotFound.
func (s *Store) Get(ctx context.Context, provider string) (*models.IntegrationCredential, error) {
	var cred models.IntegrationCredential
	err := s.c.FindOne(ctx, bson.M{"provider": provider}).Decode(&cred)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Upsert replaces the credential for provider. ConnectedAt is set to now.
func (s *Store) Upsert(ctx context.Context, provider, blob, account string, by *primitive.ObjectID, now time.Time) error {
	set := bson.M{
		"blob":         blob,
		"account":      account,
		"connected_at": now,
	}
	if by != nil {
		set["updated_by"] = *by
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"provider": provider},
		bson.M{"$set": set, "$setOnInsert": bson.M{"provider": provider}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Delete removes the credential. It reports whether one existed.
func (s *Store) Delete(ctx context.Context, provider string) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"provider": provider})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// List returns every stored credential ordered by provider.
func (s *Store) List(ctx context.Context) ([]models.IntegrationCredential, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "provider", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.IntegrationCredential
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package settingsstore

import (
	"context"
	"time"

	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store provides access to the flat settings collection.
type Store struct {
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a new settings store.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{c: db.Collection("settings"), log: logger}
}

// All returns every stored key and value.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Setting
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	kv := make(map[string]string, len(rows))
	for _, r := range rows {
		kv[r.Key] = r.Value
	}
	return kv, nil
}

// Load reads and decodes the settings. Problems list stored values that
// fell back to defaults.
func (s *Store) Load(ctx context.Context) (models.SiteSettings, []Problem, error) {
	kv, err := s.All(ctx)
	if err != nil {
		return models.DefaultSiteSettings(), nil, err
	}
	st, problems := Decode(kv)
	return st, problems, nil
}

// Get is Load without the problems. On a read error the defaults are
// returned and the error is logged.
func (s *Store) Get(ctx context.Context) models.SiteSettings {
	st, _, err := s.Load(ctx)
	if err != nil {
		s.log.Warn("settings load failed; using defaults", zap.Error(err))
	}
	return st
}

// SiteName returns the organization name for page titles and email.
func (s *Store) SiteName(ctx context.Context) string {
	return s.Get(ctx).OrganizationName
}

// Save encodes st and upserts every key in one bulk write.
func (s *Store) Save(ctx context.Context, st models.SiteSettings, by *primitive.ObjectID, now time.Time) error {
	return s.SetMany(ctx, Encode(st), by, now)
}

// SetMany upserts the given keys.
func (s *Store) SetMany(ctx context.Context, kv map[string]string, by *primitive.ObjectID, now time.Time) error {
	if len(kv) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(kv))
	for k, v := range kv {
		set := bson.M{"value": v, "updated_at": now}
		if by != nil {
			set["updated_by"] = *by
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"key": k}).
			SetUpdate(bson.M{
				"$set":         set,
				"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "key": k},
			}).
			SetUpsert(true))
	}
	_, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// Set upserts a single key.
func (s *Store) Set(ctx context.Context, key, value string, by *primitive.ObjectID) error {
	return s.SetMany(ctx, map[string]string{key: value}, by, time.Now().UTC())
}

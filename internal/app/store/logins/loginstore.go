package loginstore

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

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
	return &Store{c: db.Collection("login_records")}
}

// Create inserts a LoginRecord. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom records a login for userID using the request's client IP
// (X-Forwarded-For, then X-Real-IP, then RemoteAddr) and user agent.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID) error {
	return s.Create(ctx, models.LoginRecord{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// Recent returns the newest logins across all users.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.LoginRecord, error) {
	return s.find(ctx, bson.M{}, limit)
}

// ForUser returns the newest logins for one user.
func (s *Store) ForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.LoginRecord, error) {
	return s.find(ctx, bson.M{"user_id": userID}, limit)
}

// CountSince counts logins at or after t.
func (s *Store) CountSince(ctx context.Context, t time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": t}})
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]models.LoginRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LoginRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first entry is the original client
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return strings.TrimSpace(xr)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/normalize"
	"github.com/dalemusser/councilhub/internal/app/system/search"
	"github.com/dalemusser/councilhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New("unknown role")
	errBadStatus      = errors.New("unknown member status")
	errNoEmail        = errors.New("email is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// BucketFilter returns the query matching exactly the users that
// lifecycle.Classify puts in b. A null, missing or empty token counts as
// no token.
func BucketFilter(b lifecycle.Bucket) bson.M {
	noToken := bson.A{
		bson.M{"email_verification_token": nil},
		bson.M{"email_verification_token": ""},
	}
	switch b {
	case lifecycle.Active:
		return bson.M{"approved": true}
	case lifecycle.PendingApproval:
		return bson.M{"approved": bson.M{"$ne": true}, "email_verified": true}
	case lifecycle.Unverified:
		return bson.M{
			"approved":                 bson.M{"$ne": true},
			"email_verified":           bson.M{"$ne": true},
			"email_verification_token": bson.M{"$nin": bson.A{nil, ""}},
		}
	case lifecycle.Legacy:
		return bson.M{
			"approved":       bson.M{"$ne": true},
			"email_verified": bson.M{"$ne": true},
			"$or":            noToken,
		}
	}
	// Unknown bucket matches nothing.
	return bson.M{"_id": primitive.NilObjectID}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing and validating fields.
// Role defaults to MEMBER and member status to VISITOR.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = normalize.NameCI(u.Name)
	u.Email = normalize.Email(u.Email)
	if u.Email == "" {
		return models.User{}, errNoEmail
	}
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = models.RoleMember
	}
	if !models.ValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	u.MemberStatus = normalize.MemberStatus(u.MemberStatus)
	if u.MemberStatus == "" {
		u.MemberStatus = models.StatusVisitor
	}
	if !models.ValidMemberStatus(u.MemberStatus) {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ListFilter narrows List. A nil Bucket lists every user.
type ListFilter struct {
	Bucket *lifecycle.Bucket
	Search string
	Limit  int64
}

// List returns users sorted by name.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, error) {
	q := bson.M{}
	if f.Bucket != nil {
		q = BucketFilter(*f.Bucket)
	}
	if sq := search.Filter(f.Search, "name_ci", "email"); sq != nil {
		q = bson.M{"$and": bson.A{q, sq}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByBucket returns every user in bucket b.
func (s *Store) ListByBucket(ctx context.Context, b lifecycle.Bucket) ([]models.User, error) {
	return s.List(ctx, ListFilter{Bucket: &b})
}

// CountByBucket returns the number of users in each bucket.
func (s *Store) CountByBucket(ctx context.Context) (map[lifecycle.Bucket]int64, error) {
	out := make(map[lifecycle.Bucket]int64, len(lifecycle.Buckets))
	for _, b := range lifecycle.Buckets {
		n, err := s.c.CountDocuments(ctx, BucketFilter(b))
		if err != nil {
			return nil, err
		}
		out[b] = n
	}
	return out, nil
}

// MarkEmailVerified sets email_verified and clears the token. It reports
// false when the address was already verified.
func (s *Store) MarkEmailVerified(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "email_verified": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"email_verified":           true,
			"email_verification_token": nil,
			"updated_at":               now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// VerifyByToken marks the owner of token verified and returns the updated
// user. Returns mongo.ErrNoDocuments for an unknown or already used token.
func (s *Store) VerifyByToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	if token == "" {
		return nil, mongo.ErrNoDocuments
	}
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email_verification_token": token},
		bson.M{"$set": bson.M{
			"email_verified":           true,
			"email_verification_token": nil,
			"updated_at":               now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Approve approves the user unless already approved. approved_at is never
// refreshed on a repeat call.
func (s *Store) Approve(ctx context.Context, id, by primitive.ObjectID, now time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "approved": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"approved":    true,
			"approved_at": now,
			"approved_by": by,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MigrateLegacy verifies and approves id only while it is still legacy.
func (s *Store) MigrateLegacy(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	q := BucketFilter(lifecycle.Legacy)
	q["_id"] = id
	res, err := s.c.UpdateOne(ctx, q, bson.M{"$set": bson.M{
		"email_verified": true,
		"approved":       true,
		"approved_at":    now,
		"updated_at":     now,
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// SetActive sets the active flag.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool, now time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": active, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateProfile applies the non-nil fields of edit.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, edit lifecycle.ProfileEdit, now time.Time) error {
	set := bson.M{"updated_at": now}
	if edit.Name != nil {
		set["name"] = normalize.Name(*edit.Name)
		set["name_ci"] = normalize.NameCI(*edit.Name)
	}
	if edit.Phone != nil {
		set["phone"] = normalize.Name(*edit.Phone)
	}
	if edit.Role != nil {
		set["role"] = normalize.Role(*edit.Role)
	}
	if edit.MemberStatus != nil {
		set["member_status"] = normalize.MemberStatus(*edit.MemberStatus)
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetPassword replaces the stored bcrypt hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string, now time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": hash, "updated_at": now}})
	return err
}

// TouchLastLogin records a successful sign-in.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login": now}})
	return err
}

// Delete removes the user. It reports false when nothing matched.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

var _ lifecycle.UserRepo = (*Store)(nil)

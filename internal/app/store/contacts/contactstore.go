// Package contactstore persists the council directory.
package contactstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/normalize"
	"github.com/dalemusser/councilhub/internal/app/system/paging"
	"github.com/dalemusser/councilhub/internal/app/system/search"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errNoName = errors.New("contact name is required")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contacts")}
}

// Insert normalizes and stores c. It satisfies csvutil.ContactInserter.
func (s *Store) Insert(ctx context.Context, c models.Contact) (models.Contact, error) {
	c.ID = primitive.NewObjectID()
	c.ContactName = normalize.Name(c.ContactName)
	if c.ContactName == "" {
		return models.Contact{}, errNoName
	}
	c.ContactNameCI = normalize.NameCI(c.ContactName)
	c.Email = normalize.Email(c.Email)
	c.ContactType = normalize.ContactType(c.ContactType)

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

// GetByID loads a contact. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	var c models.Contact
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Search string
	Type   string
}

func (f ListFilter) query() bson.M {
	and := bson.A{}
	if t := normalize.Filter(f.Type); t != "" {
		and = append(and, bson.M{"contact_type": normalize.ContactType(t)})
	}
	if sq := search.Filter(f.Search, "contact_name_ci", "organization", "email", "city"); sq != nil {
		and = append(and, sq)
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// List returns one page of contacts sorted by name.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Request) (paging.Page[models.Contact], error) {
	q := f.query()
	if w := p.Window("contact_name_ci"); w != nil {
		q = bson.M{"$and": bson.A{q, w}}
	}

	cur, err := s.c.Find(ctx, q, p.FindOptions("contact_name_ci"))
	if err != nil {
		return paging.Page[models.Contact]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Contact
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Contact]{}, err
	}
	return paging.Finish(rows, p,
		func(c models.Contact) string { return c.ContactNameCI },
		func(c models.Contact) primitive.ObjectID { return c.ID },
	), nil
}

// Patch holds optional contact changes. Nil means unchanged.
type Patch struct {
	ContactName  *string `json:"contact_name,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Title        *string `json:"title,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Zip          *string `json:"zip,omitempty"`
	Website      *string `json:"website,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	ContactType  *string `json:"contact_type,omitempty"`
}

// Update applies p and returns the updated contact.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch, now time.Time) (*models.Contact, error) {
	set := bson.M{"updated_at": now}
	if p.ContactName != nil {
		name := normalize.Name(*p.ContactName)
		if name == "" {
			return nil, errNoName
		}
		set["contact_name"] = name
		set["contact_name_ci"] = normalize.NameCI(name)
	}
	if p.Email != nil {
		set["email"] = normalize.Email(*p.Email)
	}
	if p.ContactType != nil {
		set["contact_type"] = normalize.ContactType(*p.ContactType)
	}
	plain := map[string]*string{
		"organization": p.Organization,
		"title":        p.Title,
		"phone":        p.Phone,
		"address":      p.Address,
		"city":         p.City,
		"state":        p.State,
		"zip":          p.Zip,
		"website":      p.Website,
		"notes":        p.Notes,
	}
	for k, v := range plain {
		if v != nil {
			set[k] = normalize.Name(*v)
		}
	}

	var c models.Contact
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the contact. It reports false when nothing matched.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// CountByType returns the number of contacts per type.
func (s *Store) CountByType(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$contact_type", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Type string `bson:"_id"`
			N    int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Type] = row.N
	}
	return out, cur.Err()
}

// Package eventstore persists council calendar events.
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/normalize"
	"github.com/dalemusser/councilhub/internal/app/system/search"
	"github.com/dalemusser/councilhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// slugAttempts bounds the suffix retries when a slug collides.
const slugAttempts = 5

var (
	// ErrSlugExhausted is returned when no unique slug could be generated.
	ErrSlugExhausted = errors.New("could not generate a unique event slug")
	errNoTitle       = errors.New("event title is required")
)

type Store struct {
	c     *mongo.Collection
	tasks *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events"), tasks: db.Collection("tasks")}
}

// Create inserts e with a slug derived from its title. On collision a short
// random suffix is appended. Published mirrors Status.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.Title = normalize.Name(e.Title)
	if e.Title == "" {
		return models.Event{}, errNoTitle
	}
	e.TitleCI = normalize.NameCI(e.Title)
	e.Status = normalize.Status(e.Status)
	if e.Status == "" {
		e.Status = models.EventDraft
	}
	e.Published = e.Status == models.EventPublished

	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = e.CreatedAt

	base := normalize.Slug(e.Title)
	if base == "" {
		base = "event"
	}
	slug := base
	for i := 0; i < slugAttempts; i++ {
		e.ID = primitive.NewObjectID()
		e.Slug = slug
		_, err := s.c.InsertOne(ctx, e)
		if err == nil {
			return e, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Event{}, err
		}
		slug = base + "-" + uuid.NewString()[:8]
	}
	return models.Event{}, ErrSlugExhausted
}

// GetByID loads an event. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetBySlug loads an event by its public slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"slug": slug}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Exists reports whether an event with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// ListFilter narrows List. From and To select events whose span touches the
// window. Empty strings and nil pointers are ignored.
type ListFilter struct {
	From     *time.Time
	To       *time.Time
	Status   string
	Category string
	Search   string
	Limit    int64
}

// List returns events ordered by start date.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Event, error) {
	and := bson.A{}
	if f.To != nil {
		and = append(and, bson.M{"start_date": bson.M{"$lte": *f.To}})
	}
	if f.From != nil {
		// Single-day events have no end_date; fall back to start_date.
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"end_date": bson.M{"$gte": *f.From}},
			bson.M{"end_date": nil, "start_date": bson.M{"$gte": *f.From}},
		}})
	}
	if st := normalize.Status(f.Status); st != "" {
		and = append(and, bson.M{"status": st})
	}
	if f.Category != "" {
		and = append(and, bson.M{"category": f.Category})
	}
	if sq := search.Filter(f.Search, "title_ci", "location"); sq != nil {
		and = append(and, sq)
	}

	q := bson.M{}
	if len(and) > 0 {
		q = bson.M{"$and": and}
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch holds optional event changes. Nil means unchanged; ClearEndDate
// turns a multi-day event into a single-day one.
type Patch struct {
	Title        *string
	Description  *string
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Location     *string
	Category     *string
	Status       *string
}

// Apply returns e with p applied. The slug is never changed.
func (p Patch) Apply(e models.Event) models.Event {
	if p.Title != nil {
		e.Title = normalize.Name(*p.Title)
		e.TitleCI = normalize.NameCI(e.Title)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.ClearEndDate {
		e.EndDate = nil
	} else if p.EndDate != nil {
		end := *p.EndDate
		e.EndDate = &end
	}
	if p.Location != nil {
		e.Location = normalize.Name(*p.Location)
	}
	if p.Category != nil {
		e.Category = normalize.Name(*p.Category)
	}
	if p.Status != nil {
		e.Status = normalize.Status(*p.Status)
		e.Published = e.Status == models.EventPublished
	}
	return e
}

// Update writes the patched fields of the event. The caller validates the
// merged result first (see Patch.Apply).
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch, now time.Time) (*models.Event, error) {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if p.Title != nil {
		set["title"] = normalize.Name(*p.Title)
		set["title_ci"] = normalize.NameCI(*p.Title)
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.StartDate != nil {
		set["start_date"] = *p.StartDate
	}
	if p.ClearEndDate {
		unset["end_date"] = ""
	} else if p.EndDate != nil {
		set["end_date"] = *p.EndDate
	}
	if p.Location != nil {
		set["location"] = normalize.Name(*p.Location)
	}
	if p.Category != nil {
		set["category"] = normalize.Name(*p.Category)
	}
	if p.Status != nil {
		st := normalize.Status(*p.Status)
		set["status"] = st
		set["published"] = st == models.EventPublished
	}

	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}

	var e models.Event
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes the event and every task attached to it. It reports false
// when the event did not exist; tasks are only removed when it did.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (deleted bool, tasksDeleted int64, err error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, 0, err
	}
	if res.DeletedCount == 0 {
		return false, 0, nil
	}
	tr, err := s.tasks.DeleteMany(ctx, bson.M{"event_id": id})
	if err != nil {
		return true, 0, err
	}
	return true, tr.DeletedCount, nil
}

// Categories returns the distinct non-empty categories in use.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	vals, err := s.c.Distinct(ctx, "category", bson.M{"category": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out, nil
}

// CountUpcoming counts published events starting at or after now.
func (s *Store) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.EventPublished, "start_date": bson.M{"$gte": now}})
}

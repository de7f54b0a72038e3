// Package paging implements keyset pagination over (sort key, _id) pairs.
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows in a page.
const PageSize = 50

// MaxPageSize caps a client-requested limit.
const MaxPageSize = 200

// Request is a page request: at most one of Before and After is set.
type Request struct {
	Before string
	After  string
	Size   int
}

// FromRequest reads before, after and limit from the query string.
func FromRequest(r *http.Request) Request {
	req := Request{
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
		Size:   PageSize,
	}
	if req.Before != "" {
		req.After = ""
	}
	if n, err := strconv.Atoi(query.Get(r, "limit")); err == nil && n > 0 {
		req.Size = n
	}
	return req.normalized()
}

func (p Request) normalized() Request {
	if p.Size <= 0 {
		p.Size = PageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Backward reports whether the request pages toward the start.
func (p Request) Backward() bool { return p.Before != "" }

// Window returns the cursor condition on sortField, or nil on the first page
// or when the cursor does not decode.
func (p Request) Window(sortField string) bson.M {
	raw, dir := p.After, "gt"
	if p.Backward() {
		raw, dir = p.Before, "lt"
	}
	if raw == "" {
		return nil
	}
	c, ok := wafflemongo.DecodeCursor(raw)
	if !ok {
		return nil
	}
	return wafflemongo.KeysetWindow(sortField, dir, c.CI, c.ID)
}

// FindOptions sorts on (sortField, _id) in the paging direction and fetches
// one extra row to detect a further page.
func (p Request) FindOptions(sortField string) *options.FindOptions {
	p = p.normalized()
	order := 1
	if p.Backward() {
		order = -1
	}
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: order}, {Key: "_id", Value: order}}).
		SetLimit(int64(p.Size + 1))
}

// Page is one page of results with cursors for its neighbours.
type Page[T any] struct {
	Items      []T    `json:"items"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	PrevCursor string `json:"prev_cursor,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Finish trims the extra look-ahead row, restores ascending order for
// backward pages, and builds the neighbour cursors.
func Finish[T any](rows []T, p Request, key func(T) string, id func(T) primitive.ObjectID) Page[T] {
	p = p.normalized()
	var pg Page[T]

	more := len(rows) > p.Size
	if more {
		rows = rows[:p.Size]
	}
	if p.Backward() {
		Reverse(rows)
		pg.HasPrev = more
		pg.HasNext = true
	} else {
		pg.HasNext = more
		pg.HasPrev = p.After != ""
	}

	if rows == nil {
		rows = []T{}
	}
	pg.Items = rows
	if len(rows) > 0 {
		first, last := rows[0], rows[len(rows)-1]
		if pg.HasPrev {
			pg.PrevCursor = wafflemongo.EncodeCursor(key(first), id(first))
		}
		if pg.HasNext {
			pg.NextCursor = wafflemongo.EncodeCursor(key(last), id(last))
		}
	}
	return pg
}

// Reverse reverses a slice in place.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

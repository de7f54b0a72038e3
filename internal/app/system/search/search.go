// Package search builds case-insensitive substring filters for list queries.
package search

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxQueryLen bounds the user-supplied search text.
const MaxQueryLen = 100

// Clean trims q, collapses inner whitespace and truncates it to MaxQueryLen runes.
func Clean(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if r := []rune(q); len(r) > MaxQueryLen {
		q = string(r[:MaxQueryLen])
	}
	return q
}

// Pattern returns the folded, regex-escaped form of q, or "" when q is blank.
// Fields named *_ci hold folded text, so the pattern matches them directly.
func Pattern(q string) string {
	q = Clean(q)
	if q == "" {
		return ""
	}
	return regexp.QuoteMeta(text.Fold(q))
}

// Filter returns an $or of case-insensitive substring matches of q over
// fields, or nil when q is blank.
func Filter(q string, fields ...string) bson.M {
	p := Pattern(q)
	if p == "" || len(fields) == 0 {
		return nil
	}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: primitive.Regex{Pattern: p, Options: "i"}})
	}
	return bson.M{"$or": or}
}

package calendar

import (
	"sort"
	"time"
)

// Spanned is anything with a start and an optional end. A zero End means
// the item occupies only its start day.
type Spanned interface {
	Start() time.Time
	End() time.Time
}

// EventsForDate returns the events whose day span includes day, ordered by
// start time. Spans are compared by calendar date in day's location, so an
// event ending at 09:00 still covers the whole of its last day.
func EventsForDate[E Spanned](day time.Time, events []E) []E {
	loc := day.Location()
	d := StartOfDay(day)

	var out []E
	for _, e := range events {
		start := StartOfDay(e.Start().In(loc))
		end := start
		if !e.End().IsZero() {
			end = StartOfDay(e.End().In(loc))
			if end.Before(start) {
				end = start
			}
		}
		if !d.Before(start) && !d.After(end) {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start().Before(out[j].Start())
	})
	return out
}

// Cap returns at most max items and the number left over, for "+N more" labels.
func Cap[E any](items []E, max int) ([]E, int) {
	if max < 0 || len(items) <= max {
		return items, 0
	}
	return items[:max], len(items) - max
}

// DayBucket is a grid cell with the events that fall on it.
type DayBucket[E any] struct {
	Cell
	Events []E `json:"events"`
	More   int `json:"more"`
}

// Bucket assigns events to every cell, keeping at most max visible per cell.
func Bucket[E Spanned](cells []Cell, events []E, max int) []DayBucket[E] {
	out := make([]DayBucket[E], len(cells))
	for i, c := range cells {
		visible, more := Cap(EventsForDate(c.Date, events), max)
		out[i] = DayBucket[E]{Cell: c, Events: visible, More: more}
	}
	return out
}

// Package calendar builds month grids and buckets events into days.
package calendar

import "time"

// GridCells is the fixed number of cells in a month grid (6 weeks of 7 days).
const GridCells = 42

// Cell is one day in a month grid.
type Cell struct {
	Date           time.Time `json:"date"`
	IsCurrentMonth bool      `json:"is_current_month"`
	IsToday        bool      `json:"is_today"`
}

// Month identifies a calendar month in a location.
type Month struct {
	Year  int
	Month time.Month
	Loc   *time.Location
}

// NewMonth normalizes year/month, so month 13 is January of the next year
// and month 0 is December of the previous one.
func NewMonth(year int, month int, loc *time.Location) Month {
	if loc == nil {
		loc = time.UTC
	}
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return Month{Year: t.Year(), Month: t.Month(), Loc: loc}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month(), Loc: t.Location()}
}

// First returns midnight on the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, m.loc())
}

// Prev returns the previous month.
func (m Month) Prev() Month { return NewMonth(m.Year, int(m.Month)-1, m.loc()) }

// Next returns the following month.
func (m Month) Next() Month { return NewMonth(m.Year, int(m.Month)+1, m.loc()) }

// GridStart returns the Sunday on or before the first of the month.
func (m Month) GridStart() time.Time {
	first := m.First()
	return first.AddDate(0, 0, -int(first.Weekday()))
}

// GridRange returns the first instant of the first cell and the last instant
// of the last cell, for querying events that touch the grid.
func (m Month) GridRange() (time.Time, time.Time) {
	start := m.GridStart()
	end := start.AddDate(0, 0, GridCells).Add(-time.Nanosecond)
	return start, end
}

func (m Month) loc() *time.Location {
	if m.Loc == nil {
		return time.UTC
	}
	return m.Loc
}

// BuildMonthGrid returns the 42 cells covering the month, starting on Sunday.
func BuildMonthGrid(year int, month time.Month, loc *time.Location) []Cell {
	m := NewMonth(year, int(month), loc)
	start := m.GridStart()

	cells := make([]Cell, GridCells)
	for i := range cells {
		d := start.AddDate(0, 0, i)
		cells[i] = Cell{
			Date:           d,
			IsCurrentMonth: d.Month() == m.Month && d.Year() == m.Year,
		}
	}
	return cells
}

// MarkToday flags the cell that falls on now's calendar date.
func MarkToday(cells []Cell, now time.Time) {
	for i := range cells {
		n := now.In(cells[i].Date.Location())
		cells[i].IsToday = SameDay(cells[i].Date, n)
	}
}

// Weeks splits cells into rows of seven.
func Weeks(cells []Cell) [][]Cell {
	var out [][]Cell
	for i := 0; i < len(cells); i += 7 {
		end := i + 7
		if end > len(cells) {
			end = len(cells)
		}
		out = append(out, cells[i:end])
	}
	return out
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package calendar

import (
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/model"
)

// Window returns the first day of now's month and the last day of the
// following month, both in loc.
func Window(now time.Time, loc *time.Location) (first, last model.Date) {
	now = now.In(loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	// Day 0 of the month after next is the last day of next month.
	end := time.Date(now.Year(), now.Month()+2, 0, 0, 0, 0, 0, loc)
	return model.DateOf(start), model.DateOf(end)
}

// Dates lists every day from first through last inclusive.
func Dates(first, last model.Date) []model.Date {
	var out []model.Date
	for d := first; !last.Before(d); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

package model

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Default hours used when a location has no schedule.
const (
	DefaultOpen  = "10:30 AM"
	DefaultClose = "10:00 PM"
)

var clockLayouts = []string{"3:04 PM", "3:04PM", "15:04", "15:04:05"}

// ScheduleDay holds opening and closing times as clock strings such as
// "10:30 AM" or "22:00".
type ScheduleDay struct {
	Open  string `json:"open" msgpack:"open"`
	Close string `json:"close" msgpack:"close"`
}

// Schedule is a location's weekly opening hours.
type Schedule struct {
	Monday    ScheduleDay `json:"monday" msgpack:"monday"`
	Tuesday   ScheduleDay `json:"tuesday" msgpack:"tuesday"`
	Wednesday ScheduleDay `json:"wednesday" msgpack:"wednesday"`
	Thursday  ScheduleDay `json:"thursday" msgpack:"thursday"`
	Friday    ScheduleDay `json:"friday" msgpack:"friday"`
	Saturday  ScheduleDay `json:"saturday" msgpack:"saturday"`
	Sunday    ScheduleDay `json:"sunday" msgpack:"sunday"`
}

// Day returns the hours for a weekday.
func (s Schedule) Day(w time.Weekday) ScheduleDay {
	switch w {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	default:
		return s.Sunday
	}
}

// Hours returns the opening and closing instants of a location on date d in
// loc. A nil schedule, or a day with unparsable times, falls back to the
// default hours.
func Hours(s *Schedule, d Date, loc *time.Location) (start, end time.Time) {
	day := ScheduleDay{Open: DefaultOpen, Close: DefaultClose}
	if s != nil {
		day = s.Day(d.Weekday())
	}
	start, err := At(d, day.Open, loc)
	if err != nil {
		start, _ = At(d, DefaultOpen, loc)
	}
	end, err = At(d, day.Close, loc)
	if err != nil || !end.After(start) {
		end, _ = At(d, DefaultClose, loc)
	}
	return start, end
}

// At combines a date with a clock string.
func At(d Date, clock string, loc *time.Location) (time.Time, error) {
	clock = strings.ToUpper(strings.TrimSpace(clock))
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, clock)
		if err == nil {
			return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, errors.Newf("unrecognized clock time %q", clock)
}

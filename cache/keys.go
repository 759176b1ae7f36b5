package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/IronManRust/culvers-ice-cream-ical/model"
)

// Key prefixes.
const (
	PrefixFlavors  = "flavors"
	PrefixLocation = "location"
	PrefixCalendar = "calendar"
)

// Prefixes returns every key prefix in use.
func Prefixes() []string {
	return []string{PrefixFlavors, PrefixLocation, PrefixCalendar}
}

// FlavorsKey is the key of the flavor catalog.
func FlavorsKey() string {
	return PrefixFlavors
}

// LocationKey is the key of a location's detail.
func LocationKey(id int) string {
	return PrefixLocation + ":" + strconv.Itoa(id)
}

// CalendarKey is the key of a location's calendar header on a date. Month
// and day are not zero-padded.
func CalendarKey(locationID int, d model.Date) string {
	return fmt.Sprintf("%s:%d:%d-%d-%d", PrefixCalendar, locationID, d.Year, int(d.Month), d.Day)
}

// prefixOf returns the namespace portion of key, used as a metric label.
func prefixOf(key string) string {
	p, _, _ := strings.Cut(key, ":")
	return strings.ToLower(p)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

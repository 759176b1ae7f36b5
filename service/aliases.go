package service

import (
	"strings"

	"github.com/IronManRust/culvers-ice-cream-ical/apperr"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
)

// RawCalendarQuery is a calendar query as received at the edge, where
// every parameter may also arrive under its short alias.
type RawCalendarQuery struct {
	LocationID []int    `json:"locationID,omitempty"`
	L          []int    `json:"l,omitempty"`
	FlavorKey  []string `json:"flavorKey,omitempty"`
	F          []string `json:"f,omitempty"`
}

// NormalizeCalendarQuery merges the aliases of a raw query. Values keep the
// order of first appearance, full names before aliases, with duplicates
// removed. Flavor keys are normalized and blank keys dropped.
func NormalizeCalendarQuery(raw RawCalendarQuery) model.CalendarQuery {
	q := model.CalendarQuery{
		LocationIDs: []int{},
		FlavorKeys:  []string{},
	}
	seenIDs := make(map[int]bool)
	for _, ids := range [][]int{raw.LocationID, raw.L} {
		for _, id := range ids {
			if !seenIDs[id] {
				seenIDs[id] = true
				q.LocationIDs = append(q.LocationIDs, id)
			}
		}
	}
	seenKeys := make(map[string]bool)
	for _, keys := range [][]string{raw.FlavorKey, raw.F} {
		for _, k := range keys {
			k = model.NormalizeKey(k)
			if k != "" && !seenKeys[k] {
				seenKeys[k] = true
				q.FlavorKeys = append(q.FlavorKeys, k)
			}
		}
	}
	return q
}

// ValidateCalendarQuery requires at least one location and positive ids.
func ValidateCalendarQuery(q model.CalendarQuery) error {
	if len(q.LocationIDs) == 0 {
		return apperr.Validation("at least one location id is required")
	}
	for _, id := range q.LocationIDs {
		if id <= 0 {
			return apperr.Validation("invalid location id %d", id)
		}
	}
	return nil
}

// NormalizePostal returns postal, or its alias p when postal is blank.
func NormalizePostal(postal, p string) string {
	if s := strings.TrimSpace(postal); s != "" {
		return s
	}
	return strings.TrimSpace(p)
}

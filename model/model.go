// Package model holds the flavor-of-the-day data types shared by the
// cache, resolvers, aggregator and transport.
package model

import (
	"strings"
	"time"
)

// NormalizeKey trims and lower-cases a flavor or location key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// FlavorSummary is the short form of a flavor.
type FlavorSummary struct {
	Key      string `json:"key" msgpack:"key"`
	Name     string `json:"name" msgpack:"name"`
	ImageURL string `json:"imageURL" msgpack:"imageURL"`
}

// FlavorDetail is the full form of a flavor as listed in the catalog.
type FlavorDetail struct {
	Key         string `json:"key" msgpack:"key"`
	Name        string `json:"name" msgpack:"name"`
	Description string `json:"description" msgpack:"description"`
	ImageURL    string `json:"imageURL" msgpack:"imageURL"`
	SourceURL   string `json:"sourceURL,omitempty" msgpack:"sourceURL"`
}

func (f FlavorDetail) Summary() FlavorSummary {
	return FlavorSummary{Key: f.Key, Name: f.Name, ImageURL: f.ImageURL}
}

// UnknownFlavorDescription is the description carried by placeholder flavors.
const UnknownFlavorDescription = "This flavor is not listed in the flavor catalog."

// UnknownFlavor returns a placeholder for a flavor name that does not match
// any catalog entry. The key is derived from the name so repeated lookups
// produce the same placeholder.
func UnknownFlavor(name string) FlavorDetail {
	name = strings.TrimSpace(name)
	key := strings.Join(strings.Fields(NormalizeKey(name)), "-")
	if key == "" {
		key = "unknown"
		name = "Unknown Flavor"
	}
	return FlavorDetail{
		Key:         key,
		Name:        name,
		Description: UnknownFlavorDescription,
	}
}

// Address is a postal address.
type Address struct {
	Address1 string `json:"address1" msgpack:"address1"`
	Address2 string `json:"address2,omitempty" msgpack:"address2"`
	City     string `json:"city" msgpack:"city"`
	State    string `json:"state" msgpack:"state"`
	Postal   string `json:"postal" msgpack:"postal"`
	Country  string `json:"country" msgpack:"country"`
}

// LocationSummary is the short form of a store location.
type LocationSummary struct {
	ID   int    `json:"id" msgpack:"id"`
	Key  string `json:"key" msgpack:"key"`
	Name string `json:"name" msgpack:"name"`
	URL  string `json:"url" msgpack:"url"`
}

// LocationDetail is a store location with its address and weekly schedule.
type LocationDetail struct {
	ID       int       `json:"id" msgpack:"id"`
	Key      string    `json:"key" msgpack:"key"`
	Name     string    `json:"name" msgpack:"name"`
	URL      string    `json:"url" msgpack:"url"`
	Address  Address   `json:"address" msgpack:"address"`
	Schedule *Schedule `json:"schedule,omitempty" msgpack:"schedule"`
}

func (l LocationDetail) Summary() LocationSummary {
	return LocationSummary{ID: l.ID, Key: l.Key, Name: l.Name, URL: l.URL}
}

// CalendarHeader records which flavor a location serves on a date.
type CalendarHeader struct {
	LocationID int    `json:"locationID" msgpack:"locationID"`
	Date       Date   `json:"date" msgpack:"date"`
	FlavorKey  string `json:"flavorKey" msgpack:"flavorKey"`
	FlavorName string `json:"flavorName,omitempty" msgpack:"flavorName"`
}

// CalendarItem is one day of a calendar: the flavor served at a location
// between Start and End.
type CalendarItem struct {
	Date     Date           `json:"date"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Flavor   FlavorDetail   `json:"flavor"`
	Location LocationDetail `json:"location"`
}

// CalendarQuery selects the locations of a calendar and optionally filters
// it down to a set of flavors.
type CalendarQuery struct {
	LocationIDs []int    `json:"locationIDs"`
	FlavorKeys  []string `json:"flavorKeys,omitempty"`
}

// HealthStatus describes the service's overall health.
type HealthStatus string

const (
	Healthy   HealthStatus = "Healthy"
	Degraded  HealthStatus = "Degraded"
	Unhealthy HealthStatus = "Unhealthy"
)

// CacheStatistic is the number of live cache keys under a prefix.
type CacheStatistic struct {
	Prefix string `json:"prefix"`
	Count  int    `json:"count"`
}

// Status is a point-in-time view of the running service.
type Status struct {
	Health          HealthStatus     `json:"health"`
	MemoryUsed      uint64           `json:"memoryUsed"`
	Uptime          time.Duration    `json:"uptime"`
	CacheStatistics []CacheStatistic `json:"cacheStatistics"`
}

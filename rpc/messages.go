package rpc

import (
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/model"
)

// message is a marker interface satisfied by every request and response of
// the flavor service. The codec JSON-encodes these types.
type message interface {
	isMessage()
}

type ListFlavorsRequest struct{}

type ListFlavorsResponse struct {
	Flavors []model.FlavorDetail `json:"flavors"`
	Expires time.Time            `json:"expires"`
}

type GetFlavorRequest struct {
	Key string `json:"key"`
}

type GetFlavorResponse struct {
	Flavor  model.FlavorDetail `json:"flavor"`
	Expires time.Time          `json:"expires"`
}

type GetLocationRequest struct {
	ID int `json:"id"`
}

type GetLocationResponse struct {
	Location model.LocationDetail `json:"location"`
	Expires  time.Time            `json:"expires"`
}

// SearchLocationsRequest accepts the postal code under its full name or the
// short alias p.
type SearchLocationsRequest struct {
	Postal string `json:"postal,omitempty"`
	P      string `json:"p,omitempty"`
}

type SearchLocationsResponse struct {
	Locations []model.LocationSummary `json:"locations"`
}

// GetCalendarRequest accepts location ids and flavor keys under their full
// names or the short aliases l and f.
type GetCalendarRequest struct {
	LocationID []int    `json:"locationID,omitempty"`
	L          []int    `json:"l,omitempty"`
	FlavorKey  []string `json:"flavorKey,omitempty"`
	F          []string `json:"f,omitempty"`
}

type GetCalendarResponse struct {
	Items   []model.CalendarItem `json:"items"`
	Expires time.Time            `json:"expires"`
}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Status model.Status `json:"status"`
}

func (*ListFlavorsRequest) isMessage()      {}
func (*ListFlavorsResponse) isMessage()     {}
func (*GetFlavorRequest) isMessage()        {}
func (*GetFlavorResponse) isMessage()       {}
func (*GetLocationRequest) isMessage()      {}
func (*GetLocationResponse) isMessage()     {}
func (*SearchLocationsRequest) isMessage()  {}
func (*SearchLocationsResponse) isMessage() {}
func (*GetCalendarRequest) isMessage()      {}
func (*GetCalendarResponse) isMessage()     {}
func (*GetStatusRequest) isMessage()        {}
func (*GetStatusResponse) isMessage()       {}

package upstream

import (
	"encoding/json"
	"strings"

	"github.com/IronManRust/culvers-ice-cream-ical/model"
	"github.com/cockroachdb/errors"
)

// envelope wraps every upstream response body.
type envelope struct {
	IsSuccessful bool            `json:"isSuccessful"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data"`
}

type flavorDTO struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
}

func (d flavorDTO) toModel() (model.FlavorDetail, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return model.FlavorDetail{}, errors.New("flavor without a name")
	}
	key := model.NormalizeKey(d.Slug)
	if key == "" {
		key = model.UnknownFlavor(name).Key
	}
	return model.FlavorDetail{
		Key:         key,
		Name:        name,
		Description: strings.TrimSpace(d.Description),
		ImageURL:    d.Image,
		SourceURL:   d.URL,
	}, nil
}

type addressDTO struct {
	Street  string `json:"street"`
	Street2 string `json:"street2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Postal  string `json:"postalCode"`
	Country string `json:"country"`
}

type hoursDTO struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

type locationDTO struct {
	ID      int        `json:"id"`
	Slug    string     `json:"slug"`
	Name    string     `json:"name"`
	URL     string     `json:"url"`
	Address addressDTO `json:"address"`
	Hours   []hoursDTO `json:"hours"`
}

func (d locationDTO) validate() error {
	if d.ID <= 0 {
		return errors.Newf("location with invalid id %d", d.ID)
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.Newf("location %d without a name", d.ID)
	}
	return nil
}

func (d locationDTO) toSummary() (model.LocationSummary, error) {
	if err := d.validate(); err != nil {
		return model.LocationSummary{}, err
	}
	return model.LocationSummary{
		ID:   d.ID,
		Key:  model.NormalizeKey(d.Slug),
		Name: strings.TrimSpace(d.Name),
		URL:  d.URL,
	}, nil
}

func (d locationDTO) toModel() (model.LocationDetail, error) {
	s, err := d.toSummary()
	if err != nil {
		return model.LocationDetail{}, err
	}
	return model.LocationDetail{
		ID:   s.ID,
		Key:  s.Key,
		Name: s.Name,
		URL:  s.URL,
		Address: model.Address{
			Address1: d.Address.Street,
			Address2: d.Address.Street2,
			City:     d.Address.City,
			State:    d.Address.State,
			Postal:   d.Address.Postal,
			Country:  d.Address.Country,
		},
		Schedule: d.schedule(),
	}, nil
}

// schedule builds the weekly schedule. Partial hour lists are filled with
// the default hours; an empty list means the location has no schedule.
func (d locationDTO) schedule() *model.Schedule {
	if len(d.Hours) == 0 {
		return nil
	}
	def := model.ScheduleDay{Open: model.DefaultOpen, Close: model.DefaultClose}
	s := model.Schedule{Monday: def, Tuesday: def, Wednesday: def, Thursday: def, Friday: def, Saturday: def, Sunday: def}
	for _, h := range d.Hours {
		day := model.ScheduleDay{Open: h.Open, Close: h.Close}
		switch strings.ToLower(strings.TrimSpace(h.Day)) {
		case "monday", "mon":
			s.Monday = day
		case "tuesday", "tue":
			s.Tuesday = day
		case "wednesday", "wed":
			s.Wednesday = day
		case "thursday", "thu":
			s.Thursday = day
		case "friday", "fri":
			s.Friday = day
		case "saturday", "sat":
			s.Saturday = day
		case "sunday", "sun":
			s.Sunday = day
		}
	}
	return &s
}

type dailyFlavorDTO struct {
	Date       string `json:"date"`
	FlavorName string `json:"flavorName"`
}

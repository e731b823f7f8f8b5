package normalize

import (
	"maps"

	"github.com/goccy/go-json"
)

// City is the classified market an accommodation belongs to.
type City string

const (
	CitySeoul           City = "seoul"
	CityGoyang          City = "goyang"
	CityBusan           City = "busan"
	CityPaju            City = "paju"
	CityNearGwanghwamun City = "near_gwanghwamun"
	CityOther           City = "other"
)

// Cities lists every classification in display order.
var Cities = []City{CitySeoul, CityGoyang, CityBusan, CityPaju, CityNearGwanghwamun, CityOther}

// Valid reports whether c is a known classification.
func (c City) Valid() bool {
	for _, known := range Cities {
		if c == known {
			return true
		}
	}
	return false
}

// Coords is a WGS84 point.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Density is the fan density score shown on every card.
type Density struct {
	Value int    `json:"value"`
	Label string `json:"label"`
	Level string `json:"level"`
}

// Distance describes how far an item is from the concert venue. The
// exported fields are a typed view used for sorting and display. On the
// wire a distance is the feed's own value with any computed fields laid
// over it.
type Distance struct {
	Minutes    float64
	DistanceKm float64
	DisplayEn  string
	Text       string

	raw     any
	overlay []string
}

const (
	keyMinutes    = "minutes"
	keyDistanceKm = "distance_km"
	keyDisplayEn  = "display_en"
)

type distanceView struct {
	Minutes    float64 `json:"minutes,omitempty"`
	DistanceKm float64 `json:"distance_km,omitempty"`
	DisplayEn  string  `json:"display_en,omitempty"`
	Text       string  `json:"text,omitempty"`
}

// Raw returns the feed value the distance came from, or nil.
func (d Distance) Raw() any {
	return d.raw
}

// UnmarshalJSON keeps any JSON value as the raw distance.
func (d *Distance) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = distanceFrom(v)
	return nil
}

// MarshalJSON writes the feed value untouched unless fields were computed.
func (d Distance) MarshalJSON() ([]byte, error) {
	if len(d.overlay) == 0 {
		if d.raw != nil {
			return json.Marshal(d.raw)
		}
		return json.Marshal(distanceView{
			Minutes:    d.Minutes,
			DistanceKm: d.DistanceKm,
			DisplayEn:  d.DisplayEn,
			Text:       d.Text,
		})
	}

	out := make(map[string]any)
	if m, ok := asMap(d.raw); ok {
		maps.Copy(out, m)
	}
	for _, key := range d.overlay {
		switch key {
		case keyMinutes:
			out[key] = d.Minutes
		case keyDistanceKm:
			out[key] = d.DistanceKm
		case keyDisplayEn:
			out[key] = d.DisplayEn
		}
	}
	return json.Marshal(out)
}

// NearestSpot is the closest BTS point of interest.
type NearestSpot struct {
	Name   string  `json:"name"`
	NameKR string  `json:"name_kr,omitempty"`
	Desc   string  `json:"desc,omitempty"`
	Dist   float64 `json:"dist"`
}

// Item is a display-ready accommodation.
type Item struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	NameEn            string       `json:"name_en,omitempty"`
	NameKR            string       `json:"name_kr,omitempty"`
	Image             string       `json:"image"`
	Price             float64      `json:"price"`
	Rating            float64      `json:"rating"`
	City              City         `json:"city"`
	CityKey           string       `json:"city_key,omitempty"`
	Coords            Coords       `json:"coords"`
	Type              string       `json:"type"`
	AccommodationType string       `json:"accommodation_type_name,omitempty"`
	ArmyDensity       Density      `json:"army_density"`
	Location          string       `json:"location,omitempty"`
	AreaEn            string       `json:"area_en,omitempty"`
	Address           string       `json:"address,omitempty"`
	AddressKR         string       `json:"address_kr,omitempty"`
	Link              string       `json:"link"`
	Distance          *Distance    `json:"distance,omitempty"`
	NearestBTSSpot    *NearestSpot `json:"nearest_bts_spot"`
	Tags              []string     `json:"tags"`
	TransportDesc     string       `json:"transport_desc,omitempty"`
	SafeReturn        any          `json:"safe_return,omitempty"`
	SafeRoute         any          `json:"safe_route,omitempty"`
}

// Minutes returns the drive time to the venue, or 0 when unknown.
func (it Item) Minutes() float64 {
	if it.Distance == nil {
		return 0
	}
	return it.Distance.Minutes
}

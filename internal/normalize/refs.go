package normalize

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Venue is a fixed concert location.
type Venue struct {
	Label  string
	Coords Coords
}

// Spot is a named BTS point of interest.
type Spot struct {
	Name   string
	NameKR string
	Desc   string
	Coords Coords
}

// ImageOverride replaces the feed image of a specific hotel.
type ImageOverride struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	ImageURL string `yaml:"image_url"`
}

// References holds the coordinates and curated tables normalization
// depends on.
type References struct {
	Venues        map[City]Venue
	ScoreAnchor   Venue
	Spots         []Spot
	DefaultCoords Coords
	Overrides     []ImageOverride
}

var (
	gwanghwamunSquare = Venue{Label: "Gwanghwamun Square", Coords: Coords{Lat: 37.5759, Lng: 126.9768}}
	goyangStadium     = Venue{Label: "Goyang Stadium", Coords: Coords{Lat: 37.6556, Lng: 126.7714}}
	busanAsiad        = Venue{Label: "Busan Asiad Main Stadium", Coords: Coords{Lat: 35.1901, Lng: 129.0560}}
	kintex            = Venue{Label: "KINTEX", Coords: Coords{Lat: 37.6695, Lng: 126.7490}}
)

var permanentSpots = []Spot{
	{Name: "HYBE Insight", NameKR: "하이브 인사이트", Desc: "HYBE HQ", Coords: Coords{Lat: 37.5240, Lng: 126.9646}},
	{Name: "Old Big Hit (Hakdong)", NameKR: "구 빅히트 사옥 (학동)", Desc: "Early days location", Coords: Coords{Lat: 37.5103, Lng: 127.0221}},
	{Name: "Yoojung Sikdang", NameKR: "유정식당", Desc: "Rookie King filming spot", Coords: Coords{Lat: 37.5105, Lng: 127.0223}},
	{Name: "Seoul Forest (Suga Bench)", NameKR: "서울숲 BTS 벤치", Desc: "Suga recommended spot", Coords: Coords{Lat: 37.5444, Lng: 127.0374}},
	{Name: "Namsan Tower", NameKR: "남산타워", Desc: "Run BTS filming spot", Coords: Coords{Lat: 37.5512, Lng: 126.9882}},
	{Name: "Gyeongbokgung Palace", NameKR: "경복궁", Desc: "Performance location", Coords: Coords{Lat: 37.5796, Lng: 126.9770}},
}

//go:embed overrides.yaml
var overridesYAML []byte

var curatedOverrides = mustParseOverrides(overridesYAML)

// ParseOverrides decodes a YAML list of image overrides.
func ParseOverrides(data []byte) ([]ImageOverride, error) {
	var overrides []ImageOverride
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse image overrides: %w", err)
	}
	for i, o := range overrides {
		if o.ImageURL == "" {
			return nil, fmt.Errorf("image override %d has no image_url", i)
		}
		if o.ID == "" && o.Name == "" {
			return nil, fmt.Errorf("image override %d matches nothing", i)
		}
	}
	return overrides, nil
}

func mustParseOverrides(data []byte) []ImageOverride {
	overrides, err := ParseOverrides(data)
	if err != nil {
		panic(err)
	}
	return overrides
}

// DefaultReferences returns the built-in venues, spots and overrides.
func DefaultReferences() References {
	return References{
		Venues: map[City]Venue{
			CityNearGwanghwamun: gwanghwamunSquare,
			CitySeoul:           gwanghwamunSquare,
			CityGoyang:          goyangStadium,
			CityBusan:           busanAsiad,
		},
		ScoreAnchor:   kintex,
		Spots:         append([]Spot(nil), permanentSpots...),
		DefaultCoords: Coords{Lat: 37.5300, Lng: 127.0500},
		Overrides:     curatedOverrides,
	}
}

// WithSpots returns a copy of r with extra spots appended after the
// existing ones.
func (r References) WithSpots(extra ...Spot) References {
	spots := make([]Spot, 0, len(r.Spots)+len(extra))
	spots = append(spots, r.Spots...)
	spots = append(spots, extra...)
	r.Spots = spots
	return r
}

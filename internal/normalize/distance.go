package normalize

import (
	"fmt"
	"math"
)

// resolveCoords returns the item position. The second result reports
// whether the item carried coordinates of its own.
func resolveCoords(r RawItem, fallback Coords) (Coords, bool) {
	lat, okLat := r.num("lat")
	lng, okLng := r.num("lng")
	if okLat && okLng && lat != 0 && lng != 0 {
		return Coords{Lat: lat, Lng: lng}, true
	}

	if c := r.object("coords"); c != nil {
		lat, okLat := c.num("lat")
		lng, okLng := c.num("lng")
		if okLat && okLng {
			return Coords{Lat: lat, Lng: lng}, true
		}
	}

	return fallback, false
}

func rawDistance(r RawItem) *Distance {
	v, ok := r.value("distance")
	if !ok {
		return nil
	}
	d := distanceFrom(v)
	return &d
}

func distanceFrom(v any) Distance {
	d := Distance{raw: v}
	if m, ok := asMap(v); ok {
		d.Minutes, _ = m.num("minutes")
		d.DistanceKm, _ = m.num("distance_km")
		d.DisplayEn = m.str("display_en")
		d.Text = m.str("text")
	}
	return d
}

// resolveDistance estimates the drive to the venue of the item's city.
// Without a computed estimate the feed's distance is returned as is.
func resolveDistance(r RawItem, cls Classification, c Coords, hasCoords bool, venues map[City]Venue) *Distance {
	venue, hasVenue := venues[cls.City]
	base := rawDistance(r)

	if hasVenue && hasCoords {
		km := Haversine(c, venue.Coords)
		minutes := math.Round(km*2.5 + 5)
		d := Distance{}
		if base != nil {
			d = *base
		}
		d.Minutes = minutes
		d.DistanceKm = round1(km)
		d.DisplayEn = fmt.Sprintf("%s Drive %dmin", venue.Label, int(minutes))
		d.overlay = []string{keyMinutes, keyDistanceKm, keyDisplayEn}
		return &d
	}

	if base == nil || !hasVenue || cls.Defaulted {
		return base
	}

	text := base.DisplayEn
	if text == "" {
		text = base.Text
	}
	if text == "" {
		return base
	}
	d := *base
	d.DisplayEn = venue.Label + " " + text
	d.overlay = []string{keyDisplayEn}
	return &d
}

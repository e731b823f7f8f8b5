package normalize

import "math"

// nearestSpot returns the spot closest to c and its distance in km.
func nearestSpot(c Coords, spots []Spot) (Spot, float64, bool) {
	var (
		best   Spot
		bestKm = math.Inf(1)
	)
	for _, s := range spots {
		if km := Haversine(c, s.Coords); km < bestKm {
			best, bestKm = s, km
		}
	}
	if math.IsInf(bestKm, 1) {
		return Spot{}, 0, false
	}
	return best, bestKm, true
}

// resolveNearestSpot prefers the hotel's own curated BTS guide entry over
// the geographically nearest spot.
func resolveNearestSpot(r RawItem, c Coords, spots []Spot) *NearestSpot {
	if guide := r.list("army_local_guide", "bts"); len(guide) > 0 {
		if g, ok := asMap(guide[0]); ok {
			dist, _ := g.num("distance_km")
			return &NearestSpot{
				Name:   firstOf(g, field("name_en"), field("name")),
				NameKR: g.str("name_kr"),
				Desc:   firstOf(g, field("description_en"), field("spot_tag")),
				Dist:   dist,
			}
		}
	}

	s, km, ok := nearestSpot(c, spots)
	if !ok {
		return nil
	}
	return &NearestSpot{Name: s.Name, NameKR: s.NameKR, Desc: s.Desc, Dist: km}
}
